package session

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ss303/m3ssag1n8/internal/core"
	"github.com/ss303/m3ssag1n8/internal/owldb"
	"github.com/ss303/m3ssag1n8/internal/posts"
	"github.com/ss303/m3ssag1n8/internal/types"
)

// WorkspacesCollection is the store collection listing all workspaces.
const WorkspacesCollection = "/v1/"

// ChannelsCollection returns the collection listing a workspace's channels.
func ChannelsCollection(workspace string) string {
	return "/v1/" + workspace + "/channels/"
}

// PostsCollection returns the posts collection of a channel.
func PostsCollection(workspace, channel string) string {
	return "/v1/" + workspace + "/channels/" + channel + "/posts/"
}

// Session ties the document-store client to the reconciliation engine for
// one signed-in viewer and owns the live-stream lifecycle. At most one
// subscription is active at any time; switching channels or tearing down
// always cancels the previous stream first so a stale stream can never
// mutate the currently displayed channel.
type Session struct {
	client *owldb.Client
	engine *posts.Engine
	sub    *owldb.Subscription
}

// New creates a session around an authenticated client.
func New(client *owldb.Client, engine *posts.Engine) *Session {
	return &Session{client: client, engine: engine}
}

// Engine exposes the tree store for read projections.
func (s *Session) Engine() *posts.Engine { return s.engine }

// ListChannelPosts fetches a channel's posts collection without opening a
// stream, for one-shot snapshot views.
func (s *Session) ListChannelPosts(ctx context.Context, workspace, channel string) ([]types.Document, error) {
	docs, err := s.client.List(ctx, PostsCollection(workspace, channel))
	if err != nil {
		return nil, s.fail(err)
	}
	return docs, nil
}

// Open loads a channel snapshot into the engine and starts its live stream.
func (s *Session) Open(ctx context.Context, workspace, channel string) error {
	docs, err := s.ListChannelPosts(ctx, workspace, channel)
	if err != nil {
		return err
	}
	s.engine.DisplayAllPosts(workspace, channel, docs)
	return s.Subscribe(ctx, workspace, channel)
}

// Subscribe starts the live stream for a channel, first guaranteeing any
// previous stream is fully canceled.
func (s *Session) Subscribe(ctx context.Context, workspace, channel string) error {
	s.Unsubscribe()
	sub, err := s.client.Subscribe(ctx, PostsCollection(workspace, channel))
	if err != nil {
		return s.fail(err)
	}
	s.sub = sub
	return nil
}

// Unsubscribe cancels the active stream. It is synchronous, idempotent,
// and a no-op when no stream is active.
func (s *Session) Unsubscribe() {
	if s.sub == nil {
		return
	}
	s.sub.Cancel()
	s.sub = nil
}

// Events returns the active stream's delivery channel, or nil when no
// stream is active (a nil channel never delivers).
func (s *Session) Events() <-chan owldb.Event {
	if s.sub == nil {
		return nil
	}
	return s.sub.Events()
}

// ApplyDelivery feeds one stream delivery through attribution and
// reconciliation. It reports whether the tree store changed.
func (s *Session) ApplyDelivery(event owldb.Event) bool {
	return s.engine.UpdatePosts(event.Document, event.ID)
}

// ListWorkspaces fetches the workspace collection.
func (s *Session) ListWorkspaces(ctx context.Context) ([]types.Document, error) {
	docs, err := s.client.List(ctx, WorkspacesCollection)
	if err != nil {
		return nil, s.fail(err)
	}
	return docs, nil
}

// ListChannels fetches a workspace's channel collection.
func (s *Session) ListChannels(ctx context.Context, workspace string) ([]types.Document, error) {
	docs, err := s.client.List(ctx, ChannelsCollection(workspace))
	if err != nil {
		return nil, s.fail(err)
	}
	return docs, nil
}

// CreatePost creates a post (or reply, when parent is non-empty) in the
// open channel and applies the locally-returned document to the tree store.
func (s *Session) CreatePost(ctx context.Context, msg, parent string) (types.Document, error) {
	if s.engine.Channel() == "" {
		return types.Document{}, fmt.Errorf("no channel open")
	}
	env := core.NewEnvelope(s.engine.Viewer())
	collection := PostsCollection(s.engine.Workspace(), s.engine.Channel())
	doc, err := s.client.CreatePost(ctx, collection, msg, parent, env)
	if err != nil {
		return types.Document{}, s.fail(err)
	}
	if err := s.engine.AddPost(doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// ToggleReaction flips the viewer's reaction of the given kind on a post:
// the mutation is sent to the store under a fresh envelope, then applied
// optimistically once the store confirms it.
func (s *Session) ToggleReaction(ctx context.Context, path string, kind types.ReactionKind) error {
	node, ok := s.engine.Lookup(path)
	if !ok {
		return fmt.Errorf("react: no such post %s", path)
	}
	viewer := s.engine.Viewer()
	previously := node.Post.HasReacted(kind, viewer)

	env := core.NewEnvelope(viewer)
	s.engine.ExpectReaction(env, path, kind, previously)
	if _, err := s.client.Patch(ctx, path, owldb.ReactionOps(kind, viewer, previously), env); err != nil {
		s.engine.ForgetExpectation(env)
		return s.fail(err)
	}
	return s.engine.UpdateReactions(path, kind, previously)
}

// TogglePin flips the viewer's pin on a post, relocating its subtree
// between the general and pinned partitions on confirmation.
func (s *Session) TogglePin(ctx context.Context, path string) error {
	node, ok := s.engine.Lookup(path)
	if !ok {
		return fmt.Errorf("pin: no such post %s", path)
	}
	viewer := s.engine.Viewer()
	previously := node.Post.IsPinnedBy(viewer)

	env := core.NewEnvelope(viewer)
	s.engine.ExpectPin(env, path, previously)
	if _, err := s.client.Patch(ctx, path, owldb.PinOps(viewer, previously), env); err != nil {
		s.engine.ForgetExpectation(env)
		return s.fail(err)
	}
	return s.engine.TogglePin(path, previously)
}

// Close tears the session down: the stream is canceled and displayed state
// discarded.
func (s *Session) Close() {
	s.Unsubscribe()
	s.engine.Clear()
}

// fail inspects a store error before surfacing it. A 401 forces session
// teardown so a revoked token cannot keep a stale view alive.
func (s *Session) fail(err error) error {
	if owldb.IsUnauthorized(err) {
		log.Warnf("[session] unauthorized response, tearing down session")
		s.Close()
	}
	return err
}
