package owldb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ss303/m3ssag1n8/internal/types"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"trailing slash removed", "https://owldb.example.com/", "https://owldb.example.com", false},
		{"kept as-is", "http://localhost:3318", "http://localhost:3318", false},
		{"empty", "   ", "", true},
		{"missing scheme", "owldb.example.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginInstallsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth" {
			http.Error(w, "wrong route", http.StatusNotFound)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" {
			http.Error(w, "wrong user", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok123"})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	token, err := client.Login(context.Background(), "alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "tok123" || client.Token() != "tok123" {
		t.Fatalf("token not installed: %q", token)
	}
}

func TestCreatePostFollowsURI(t *testing.T) {
	var gotEnvelope string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			gotEnvelope = r.Header.Get("Event-ID")
			var doc types.Doc
			_ = json.NewDecoder(r.Body).Decode(&doc)
			if doc.Msg != "hello" || doc.Parent != "/parent" {
				http.Error(w, "wrong body", http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"uri": "/v1/ws/channels/ch/posts/new1"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/ws/channels/ch/posts/new1":
			_ = json.NewEncoder(w).Encode(types.Document{
				Path: r.URL.Path,
				Doc:  types.Doc{Msg: "hello", Parent: "/parent"},
				Meta: types.Meta{CreatedBy: "alice", CreatedAt: 100, LastModifiedAt: 100},
			})
		default:
			http.Error(w, "unexpected", http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	env := types.Envelope{Nonce: "n1", Actor: "alice"}
	doc, err := client.CreatePost(context.Background(), "/v1/ws/channels/ch/posts/", "hello", "/parent", env)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if doc.Path != "/v1/ws/channels/ch/posts/new1" || doc.Meta.CreatedBy != "alice" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if gotEnvelope != "n1|alice" {
		t.Fatalf("envelope header = %q", gotEnvelope)
	}
}

func TestPatchRejectionSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			http.Error(w, "expected PATCH", http.StatusMethodNotAllowed)
			return
		}
		var ops []types.PatchOp
		_ = json.NewDecoder(r.Body).Decode(&ops)
		if len(ops) != 1 || ops[0].Op != types.PatchArrayAdd {
			http.Error(w, "wrong ops", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(types.PatchResult{
			URI:         r.URL.Path,
			PatchFailed: true,
			Message:     "no such array",
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ops := ReactionOps(types.ReactionLike, "alice", false)
	result, err := client.Patch(context.Background(), "/v1/ws/channels/ch/posts/p1", ops, types.Envelope{})
	if err == nil {
		t.Fatalf("rejected patch must error")
	}
	if !result.PatchFailed || result.Message != "no such array" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.List(context.Background(), "/v1/")
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "token expired" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized must match a 401")
	}
}

func TestReactionAndPinOps(t *testing.T) {
	add := ReactionOps(types.ReactionSmile, "alice", false)
	if add[0].Op != types.PatchArrayAdd || add[0].Path != "/reactions/:smile:" || add[0].Value != "alice" {
		t.Fatalf("unexpected add op: %+v", add[0])
	}
	remove := ReactionOps(types.ReactionSmile, "alice", true)
	if remove[0].Op != types.PatchArrayRemove {
		t.Fatalf("unexpected remove op: %+v", remove[0])
	}
	pin := PinOps("alice", false)
	if pin[0].Path != "/extensions/pins" || pin[0].Op != types.PatchArrayAdd {
		t.Fatalf("unexpected pin op: %+v", pin[0])
	}
	unpin := PinOps("alice", true)
	if unpin[0].Op != types.PatchArrayRemove {
		t.Fatalf("unexpected unpin op: %+v", unpin[0])
	}
}
