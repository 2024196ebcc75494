package sync

import (
	"context"
	"testing"
	"time"

	"NovaFM/model"
)

func TestReconcilePlaylistsConvergence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := &Session{UserID: "u1"}

	// Local has a playlist the remote no longer knows about.
	localOnly, err := env.engine.CreatePlaylist(ctx, nil, "Local Only")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	// Remote has one playlist with a member track.
	env.remote.putJSON(t, "users/u1/playlists/pl_remote", model.RemotePlaylist{
		ID: "pl_remote", Name: "From Another Device", CreatedAt: time.Now().UnixMilli(),
	})
	env.remote.putJSON(t, "users/u1/playlists/pl_remote/songs/yt_a", model.RemoteMembership{
		TrackID: "yt_a", AddedAt: time.Now().UnixMilli(),
	})
	env.remote.putJSON(t, "users/u1/songs/yt_a", model.RemoteSong{
		ID: "yt_a", Title: "Remote Song", Liked: false,
	})

	if err := env.engine.ReconcilePlaylists(ctx, sess); err != nil {
		t.Fatalf("ReconcilePlaylists: %v", err)
	}

	lists, err := env.lists.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != "pl_remote" {
		t.Fatalf("playlists = %v, want only pl_remote", lists)
	}
	if lists[0].Name != "From Another Device" {
		t.Errorf("name = %q, want remote name", lists[0].Name)
	}

	if p, err := env.lists.GetByID(ctx, localOnly); err != nil || p != nil {
		t.Errorf("local-only playlist must be dropped, got %v (err %v)", p, err)
	}

	songs, err := env.lists.ListSongs(ctx, "pl_remote")
	if err != nil {
		t.Fatalf("ListSongs: %v", err)
	}
	if len(songs) != 1 || songs[0].ID != "yt_a" {
		t.Errorf("membership = %v, want [yt_a]", songs)
	}
}

func TestReconcilePlaylistsRenames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := &Session{UserID: "u1"}

	pid, err := env.engine.CreatePlaylist(ctx, sess, "Old Name")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	env.engine.DrainTasks()

	// Another device renamed it.
	env.remote.putJSON(t, "users/u1/playlists/"+pid, model.RemotePlaylist{
		ID: pid, Name: "New Name", CreatedAt: time.Now().UnixMilli(),
	})

	if err := env.engine.ReconcilePlaylists(ctx, sess); err != nil {
		t.Fatalf("ReconcilePlaylists: %v", err)
	}

	p, err := env.lists.GetByID(ctx, pid)
	if err != nil || p == nil {
		t.Fatalf("GetByID: %v, %v", p, err)
	}
	if p.Name != "New Name" {
		t.Errorf("name = %q, want diff-updated rename", p.Name)
	}
}

func TestReconcileMembershipDropsUnlinkedSongs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := &Session{UserID: "u1"}

	pid, err := env.engine.CreatePlaylist(ctx, sess, "Mix")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if err := env.engine.AddToPlaylist(ctx, sess, testTrack("yt_gone"), pid); err != nil {
		t.Fatalf("AddToPlaylist: %v", err)
	}
	env.engine.DrainTasks()

	// Simulate the other device removing the song remotely.
	env.remote.Delete(ctx, "users/u1/playlists/"+pid+"/songs/yt_gone")

	if err := env.engine.ReconcilePlaylistSongs(ctx, sess, pid); err != nil {
		t.Fatalf("ReconcilePlaylistSongs: %v", err)
	}

	ids, err := env.lists.SongIDs(ctx, pid)
	if err != nil {
		t.Fatalf("SongIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("membership = %v, want empty", ids)
	}
	// The unlinked track row survives.
	track, err := env.tracks.GetByID(ctx, "yt_gone")
	if err != nil || track == nil {
		t.Errorf("track row must survive reconciliation unlink: %v, %v", track, err)
	}
}

func TestReconcilePlaylistsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := &Session{UserID: "u1"}

	env.remote.putJSON(t, "users/u1/playlists/pl_r", model.RemotePlaylist{
		ID: "pl_r", Name: "Stable", CreatedAt: time.Now().UnixMilli(),
	})

	for i := 0; i < 2; i++ {
		if err := env.engine.ReconcilePlaylists(ctx, sess); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	lists, err := env.lists.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lists) != 1 {
		t.Errorf("playlists = %v, want exactly one after repeated passes", lists)
	}
}
