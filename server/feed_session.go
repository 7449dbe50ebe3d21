package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hakobgh/socialmedia/feed"
	"github.com/hakobgh/socialmedia/model"
	"github.com/hakobgh/socialmedia/utils"
	Logger "github.com/hakobgh/socialmedia/utils/log"
	"github.com/pkg/errors"
)

var upgrader = websocket.Upgrader{
	// Origins are already vetted by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedCommand is what the client sends over the feed socket. PostId is only
// used by watch/unwatch.
type feedCommand struct {
	Action string `json:"action"`
	PostId string `json:"post_id"`
}

type feedEvent struct {
	Type        string        `json:"type"`
	Posts       []*model.Post `json:"posts,omitempty"`
	HasMore     *bool         `json:"has_more,omitempty"`
	PostId      string        `json:"post_id,omitempty"`
	LikedIDs    []string      `json:"liked_ids,omitempty"`
	DislikedIDs []string      `json:"disliked_ids,omitempty"`
	Code        int           `json:"code,omitempty"`
	Msg         string        `json:"msg,omitempty"`
}

// Feed upgrades the connection and runs one feed session over it. Each
// connection owns its own paginated repository, single author mode when the
// "uid" query parameter is set, plus one watcher per post the client marked
// visible.
func (s *Server) Feed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	var repo *feed.Repository
	if authorUID := c.Query("uid"); authorUID != "" {
		repo = feed.NewAuthorRepository(s.Posts, authorUID)
	} else {
		repo = feed.NewRepository(s.Posts)
	}

	session := &feedSession{
		conn:     conn,
		repo:     repo,
		server:   s,
		watchers: make(map[string]*feed.Watcher),
		send:     make(chan *feedEvent, 16),
	}
	session.run(c.Request.Context())
}

type feedSession struct {
	conn   *websocket.Conn
	repo   *feed.Repository
	server *Server

	mu       sync.Mutex
	watchers map[string]*feed.Watcher

	send chan *feedEvent
}

func (fs *feedSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer fs.conn.Close()

	// Writer is the only goroutine touching the connection for writes, both
	// command replies and watcher pushes are funneled through fs.send. The
	// channel is never closed, watcher callbacks may race the shutdown.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case event := <-fs.send:
				if err := fs.conn.WriteJSON(event); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var cmd feedCommand
		if err := fs.conn.ReadJSON(&cmd); err != nil {
			break
		}
		fs.dispatch(ctx, &cmd)
	}

	fs.closeWatchers()
	cancel()
	<-writerDone
}

func (fs *feedSession) dispatch(ctx context.Context, cmd *feedCommand) {
	switch cmd.Action {
	case "load_initial":
		fs.loadPage(ctx, fs.repo.LoadInitial)
	case "load_more":
		fs.loadPage(ctx, fs.repo.LoadMore)
	case "refresh":
		fs.loadPage(ctx, fs.repo.Refresh)
	case "watch":
		fs.watch(ctx, cmd.PostId)
	case "unwatch":
		fs.unwatch(cmd.PostId)
	default:
		fs.reply(ctx, &feedEvent{Type: "error", Code: utils.ErrorInvalidRequest, Msg: "unknown action: " + cmd.Action})
	}
}

func (fs *feedSession) loadPage(ctx context.Context, load func(context.Context) error) {
	if err := load(ctx); err != nil {
		// A rejected refresh is the client misusing the protocol, not the
		// store failing.
		code := utils.ErrorDocumentFailure
		if errors.Is(err, feed.ErrRefreshNotAllowed) {
			code = utils.ErrorInvalidRequest
		}
		fs.reply(ctx, &feedEvent{Type: "error", Code: code, Msg: err.Error()})
		return
	}
	hasMore := fs.repo.HasMore()
	fs.reply(ctx, &feedEvent{Type: "page", Posts: fs.repo.Posts(), HasMore: &hasMore})
}

func (fs *feedSession) watch(ctx context.Context, postId string) {
	if postId == "" {
		fs.reply(ctx, &feedEvent{Type: "error", Code: utils.ErrorInvalidRequest, Msg: "watch requires post_id"})
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.watchers[postId]; ok {
		return
	}

	watcher := feed.NewWatcher(fs.server.Bus, postId,
		func(likedIDs []string, dislikedIDs []string) {
			fs.repo.ApplyRemoteUpdate(postId, likedIDs, dislikedIDs)
			fs.push(&feedEvent{Type: "post_updated", PostId: postId, LikedIDs: likedIDs, DislikedIDs: dislikedIDs})
		},
		func() {
			fs.repo.ApplyRemoteDelete(postId)
			fs.push(&feedEvent{Type: "post_deleted", PostId: postId})
		})
	if err := watcher.Open(ctx); err != nil {
		Logger.Log.Warn("fail to open watcher for post: ", postId, " err: ", err)
		return
	}
	fs.watchers[postId] = watcher
}

func (fs *feedSession) unwatch(postId string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if watcher, ok := fs.watchers[postId]; ok {
		watcher.Close()
		delete(fs.watchers, postId)
	}
}

func (fs *feedSession) closeWatchers() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for postId, watcher := range fs.watchers {
		watcher.Close()
		delete(fs.watchers, postId)
	}
}

// reply blocks until the writer takes the event, every client command gets
// its response even when the buffer is momentarily full of watcher pushes.
func (fs *feedSession) reply(ctx context.Context, event *feedEvent) {
	select {
	case fs.send <- event:
	case <-ctx.Done():
	}
}

// push never blocks the caller, a session that cannot keep up drops watcher
// events. Watchers re-deliver the authoritative state on the next change.
func (fs *feedSession) push(event *feedEvent) {
	select {
	case fs.send <- event:
	default:
	}
}
