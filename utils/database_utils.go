// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/hakobgh/socialmedia/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8
)

func isTempDB(dbName string) bool {
	return strings.HasPrefix(dbName, TestDBPrefix)
}

func randomTestDBName() string {
	return TestDBPrefix + RandomAlphabetString(TestDBNameCharLength)
}

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	return GetCustomizedConnection(os.Getenv("DB_NAME"))
}

// GetDefaultDBConnection connect to the maintenance database, used to manage
// all dbs
func GetDefaultDBConnection() (*gorm.DB, error) {
	dbName := os.Getenv("DEFAULT_DB_NAME")
	if dbName == "" {
		dbName = "postgres"
	}
	return GetCustomizedConnection(dbName)
}

// GetCustomizedConnection connect to any db
func GetCustomizedConnection(dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), dbName, os.Getenv("DB_PORT"))
	return getDB(dsn)
}

func getDB(connectionString string) (db *gorm.DB, err error) {
	return gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// DatabaseSetupAndMigration migrates the two collections the application
// owns. Posts carry their own compound (user_uid, cursor) index for single
// author feeds.
func DatabaseSetupAndMigration(db *gorm.DB) {
	if err := db.AutoMigrate(&model.User{}, &model.Post{}); err != nil {
		panic("failed to migrate database")
	}
}

// CreateTempDB creates a throwaway database for one test and migrates the
// schema into it. It is dropped again in t.Cleanup, the caller never cleans up
// explicitly. Skips the test when Postgres is not reachable.
//
// Note: There are 2 cases where the database won't be cleaned up:
// 1. Test fail due to timeout
// 2. Exit with signal Ctrl+C
// In both cases you should log into the database and do a manual cleanup for
// databases with prefix "testonlydb_".
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()
	adminDB, err := GetDefaultDBConnection()
	if err != nil {
		t.Skip("postgres is not reachable: ", err)
	}
	dbName := randomTestDBName()
	if err := adminDB.Exec("CREATE DATABASE " + dbName).Error; err != nil {
		t.Fatal("fail to create temp DB with name: ", dbName, " err: ", err)
	}
	db, err := GetCustomizedConnection(dbName)
	if err != nil {
		t.Fatal("fail to connect to newly created DB: ", dbName, " err: ", err)
	}
	DatabaseSetupAndMigration(db)

	t.Cleanup(func() {
		dropTempDB(adminDB, db, dbName)

		// Also proactively clean up the DB connections instead of deferring to
		// GC. Otherwise we might exceed the DB max connection limit in test.
		if conn, err := adminDB.DB(); err == nil {
			conn.Close()
		}
	})
	return db
}

// dropTempDB drops a temp db with the given name. Refuses to touch anything
// that is not a temp db. Can be called multiple times, dropping a
// non-existing DB is not an error.
func dropTempDB(adminDB *gorm.DB, curDB *gorm.DB, dbName string) {
	if !isTempDB(dbName) {
		return
	}
	// The connection into the temp db must be closed first, Postgres refuses
	// to drop a database with open sessions.
	if conn, err := curDB.DB(); err == nil {
		conn.Close()
	}
	adminDB.Exec("DROP DATABASE IF EXISTS " + dbName)
}
