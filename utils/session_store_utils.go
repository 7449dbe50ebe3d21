package utils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisSessionStore caches the signed-in user's display data (name, avatar,
// login flag) so request handlers do not re-fetch the profile document on
// every call. The cache is written at sign-in/sign-up and destroyed at
// sign-out and account deletion.
type RedisSessionStore struct {
	inner     *redis.Client
	keyParser RedisKeyParser
}

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	RedisTrue = "1"

	sessionKeyPrefix = "session"

	fieldLoggedIn   = "logged_in"
	fieldUsername   = "username"
	fieldProfileUrl = "profile_url"
)

var ctx = context.Background()

// CachedSession is the subset of the profile every screen needs.
type CachedSession struct {
	UserUID    string
	Username   string
	ProfileUrl string
}

func GetRedisSessionStore() (*RedisSessionStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	_, err := redisClient.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &RedisSessionStore{
		inner:     redisClient,
		keyParser: RedisKeyParser{delimiter: "__"},
	}, nil
}

type RedisKeyParser struct {
	delimiter string
}

func (r RedisKeyParser) ValidateId(id string) bool {
	return id != "" && !strings.Contains(id, r.delimiter)
}

func (r RedisKeyParser) EncodeSessionKey(userUID string) (string, error) {
	if !r.ValidateId(userUID) {
		return "", fmt.Errorf("invalid userUID: %s", userUID)
	}
	return fmt.Sprintf("%s%s%s", sessionKeyPrefix, r.delimiter, userUID), nil
}

func (r RedisKeyParser) DecodeSessionKey(key string) (string, error) {
	splits := strings.Split(key, r.delimiter)
	if len(splits) != 2 || splits[0] != sessionKeyPrefix {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return splits[1], nil
}

func (r *RedisSessionStore) PutSession(session *CachedSession) error {
	key, err := r.keyParser.EncodeSessionKey(session.UserUID)
	if err != nil {
		return err
	}
	return r.inner.HSet(ctx, key,
		fieldLoggedIn, RedisTrue,
		fieldUsername, session.Username,
		fieldProfileUrl, session.ProfileUrl,
	).Err()
}

// GetSession returns the cached session, or nil when the user is not signed
// in on this instance. A miss is not an error, callers fall back to the
// profile store.
func (r *RedisSessionStore) GetSession(userUID string) (*CachedSession, error) {
	key, err := r.keyParser.EncodeSessionKey(userUID)
	if err != nil {
		return nil, err
	}
	fields, err := r.inner.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if fields[fieldLoggedIn] != RedisTrue {
		return nil, nil
	}
	return &CachedSession{
		UserUID:    userUID,
		Username:   fields[fieldUsername],
		ProfileUrl: fields[fieldProfileUrl],
	}, nil
}

func (r *RedisSessionStore) DeleteSession(userUID string) error {
	key, err := r.keyParser.EncodeSessionKey(userUID)
	if err != nil {
		return err
	}
	return r.inner.Del(ctx, key).Err()
}
