package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/shared"
)

func TestScan_ChannelGroupResolution(t *testing.T) {
	svc := &mockCatalog{
		channelPlaylists: map[string][]models.Playlist{
			"ch1": {playlist("pl1", "Retro Mix"), playlist("pl2", "Empty Mix")},
		},
		playlistPages: map[string]*models.VideoPage{
			"pl1": {Videos: []models.Video{video("v1", "ch1", "A"), video("v2", "ch1", "B")}},
		},
	}
	e := newTestEngine(svc)

	var mu sync.Mutex
	var foundPlaylists []string
	var indexed []string
	cb := ScanCallbacks{
		OnPlaylistFound: func(pl models.Playlist) int {
			mu.Lock()
			defer mu.Unlock()
			foundPlaylists = append(foundPlaylists, pl.ID)
			return len(foundPlaylists)
		},
		OnVideoIndexed: func(videoID, playlistID string, displayNumber int) {
			mu.Lock()
			indexed = append(indexed, videoID)
			mu.Unlock()
		},
	}

	videos := []models.Video{video("v1", "ch1", "A"), video("v2", "ch1", "B")}
	result, err := e.Scan(context.Background(), videos, nil, cb)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.Total != 2 || result.Resolved != 2 || result.Unresolved != 0 {
		t.Errorf("Scan() = total %d resolved %d unresolved %d, want 2/2/0",
			result.Total, result.Resolved, result.Unresolved)
	}
	if result.Superseded {
		t.Error("Scan() reported superseded, want live")
	}

	if len(foundPlaylists) != 1 || foundPlaylists[0] != "pl1" {
		t.Errorf("OnPlaylistFound fired for %v, want exactly [pl1]", foundPlaylists)
	}
	if len(indexed) != 2 {
		t.Errorf("OnVideoIndexed fired %d times, want 2", len(indexed))
	}

	if owner := e.Index().Owner("v1"); owner != "pl1" {
		t.Errorf("Owner(v1) = %q, want pl1", owner)
	}
	if svc.channelCalls["ch1"] != 1 {
		t.Errorf("ChannelPlaylists(ch1) called %d times, want 1 for the whole group", svc.channelCalls["ch1"])
	}
}

func TestScan_ProgressIsMonotonicAndComplete(t *testing.T) {
	pages := map[string]*models.VideoPage{}
	channels := map[string][]models.Playlist{}
	var videos []models.Video
	for _, ch := range []string{"ch1", "ch2", "ch3"} {
		pl := playlist("pl-"+ch, ch+" uploads")
		var page models.VideoPage
		for _, suffix := range []string{"a", "b", "c"} {
			v := video(ch+"-"+suffix, ch, suffix)
			videos = append(videos, v)
			page.Videos = append(page.Videos, v)
		}
		channels[ch] = []models.Playlist{pl}
		pages[pl.ID] = &page
	}
	svc := &mockCatalog{channelPlaylists: channels, playlistPages: pages}
	e := newTestEngine(svc)

	var mu sync.Mutex
	var seq []int
	cb := ScanCallbacks{
		OnProgress: func(done, total int) {
			mu.Lock()
			seq = append(seq, done)
			mu.Unlock()
			if total != 9 {
				t.Errorf("OnProgress total = %d, want 9", total)
			}
		},
	}

	result, err := e.Scan(context.Background(), videos, nil, cb)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(seq) != result.Total {
		t.Fatalf("OnProgress fired %d times, want once per video (%d)", len(seq), result.Total)
	}
	for i, done := range seq {
		if done != i+1 {
			t.Fatalf("OnProgress sequence %v is not the strict series 1..%d", seq, result.Total)
		}
	}
}

func TestScan_DeduplicatesInput(t *testing.T) {
	svc := &mockCatalog{
		channelPlaylists: map[string][]models.Playlist{"ch1": {playlist("pl1", "Mix")}},
		playlistPages:    map[string]*models.VideoPage{"pl1": {Videos: []models.Video{video("v1", "ch1", "A")}}},
	}
	e := newTestEngine(svc)

	v := video("v1", "ch1", "A")
	result, err := e.Scan(context.Background(), []models.Video{v, v, v}, nil, ScanCallbacks{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("Scan() total = %d, want 1 after dedup", result.Total)
	}
}

func TestScan_FirstMatchWins(t *testing.T) {
	// Both playlists contain v1; the one discovered first keeps it.
	svc := &mockCatalog{
		channelPlaylists: map[string][]models.Playlist{
			"ch1": {playlist("pl1", "First"), playlist("pl2", "Second")},
		},
		playlistPages: map[string]*models.VideoPage{
			"pl1": {Videos: []models.Video{video("v1", "ch1", "A")}},
			"pl2": {Videos: []models.Video{video("v1", "ch1", "A")}},
		},
	}
	e := newTestEngine(svc)

	result, err := e.Scan(context.Background(), []models.Video{video("v1", "ch1", "A")}, nil, ScanCallbacks{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if result.Resolved != 1 {
		t.Fatalf("Scan() resolved = %d, want 1", result.Resolved)
	}
	if owner := e.Index().Owner("v1"); owner != "pl1" {
		t.Errorf("Owner(v1) = %q, want the first-discovered pl1", owner)
	}

	// A later scan must not reassign the video either.
	if _, err := e.Scan(context.Background(), []models.Video{video("v1", "ch1", "A")}, nil, ScanCallbacks{}); err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if owner := e.Index().Owner("v1"); owner != "pl1" {
		t.Errorf("Owner(v1) after rescan = %q, want pl1", owner)
	}
}

func TestScan_FallbackSearch(t *testing.T) {
	svc := &mockCatalog{
		searchPlaylists: map[string][]models.Playlist{
			"Night Drive": {playlist("pl-miss", "Unrelated"), playlist("pl-hit", "Synthwave")},
		},
		memberships: map[string]bool{"pl-hit|v1": true},
	}
	e := newTestEngine(svc)

	result, err := e.Scan(context.Background(), []models.Video{{ID: "v1", Title: "Night Drive"}}, nil, ScanCallbacks{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.Resolved != 1 {
		t.Errorf("Scan() resolved = %d, want 1", result.Resolved)
	}
	if result.SearchesUsed != 1 {
		t.Errorf("Scan() searches used = %d, want 1", result.SearchesUsed)
	}
	if owner := e.Index().Owner("v1"); owner != "pl-hit" {
		t.Errorf("Owner(v1) = %q, want pl-hit (first candidate that contains it)", owner)
	}
}

func TestScan_SearchBudgetExhaustion(t *testing.T) {
	svc := &mockCatalog{
		searchPlaylists: map[string][]models.Playlist{
			"A": {playlist("pl1", "Mix")},
			"B": {playlist("pl2", "Mix")},
		},
		memberships: map[string]bool{"pl1|v1": true, "pl2|v2": true},
	}
	e := NewEngine(EngineOpts{
		Catalog: svc,
		Logger:  shared.NewLogger(nil),
		Scan:    ScanOpts{Workers: 1, SearchBudget: 1},
	})

	progress := make(chan ProgressUpdate, 64)
	videos := []models.Video{{ID: "v1", Title: "A"}, {ID: "v2", Title: "B"}}
	result, err := e.Scan(context.Background(), videos, progress, ScanCallbacks{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	close(progress)

	if result.SearchesUsed != 1 {
		t.Errorf("Scan() searches used = %d, want exactly the budget of 1", result.SearchesUsed)
	}
	if result.Resolved != 1 || result.Unresolved != 1 {
		t.Errorf("Scan() resolved %d unresolved %d, want 1/1 (second video skipped, not errored)",
			result.Resolved, result.Unresolved)
	}
	if svc.searchCallCount() != 1 {
		t.Errorf("catalog search calls = %d, want 1", svc.searchCallCount())
	}

	sawExhausted := false
	for update := range progress {
		if update.Phase == SearchFallback && strings.Contains(update.Message, "budget") {
			sawExhausted = true
		}
	}
	if !sawExhausted {
		t.Error("no budget-exhausted progress update was sent")
	}
}

func TestScan_PartialFailuresDegrade(t *testing.T) {
	t.Run("page fetch failures leave videos unresolved", func(t *testing.T) {
		svc := &mockCatalog{
			channelPlaylists:  map[string][]models.Playlist{"ch1": {playlist("pl1", "Mix")}},
			playlistVideosErr: errors.New("backend timeout"),
		}
		e := newTestEngine(svc)

		result, err := e.Scan(context.Background(), []models.Video{video("v1", "ch1", "A")}, nil, ScanCallbacks{})
		if err != nil {
			t.Fatalf("Scan() error = %v, want nil (per-unit failures are swallowed)", err)
		}
		if result.Total != 1 || result.Resolved != 0 || result.Unresolved != 1 {
			t.Errorf("Scan() = total %d resolved %d unresolved %d, want 1/0/1",
				result.Total, result.Resolved, result.Unresolved)
		}
	})

	t.Run("channel fetch failure still counts every video", func(t *testing.T) {
		svc := &mockCatalog{channelPlaylistsErr: errors.New("backend down")}
		e := newTestEngine(svc)

		var mu sync.Mutex
		var lastDone int
		cb := ScanCallbacks{OnProgress: func(done, total int) {
			mu.Lock()
			lastDone = done
			mu.Unlock()
		}}

		videos := []models.Video{video("v1", "ch1", "A"), video("v2", "ch1", "B")}
		result, err := e.Scan(context.Background(), videos, nil, cb)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if lastDone != 2 {
			t.Errorf("final OnProgress done = %d, want 2 even when the unit failed", lastDone)
		}
		if result.Unresolved != 2 {
			t.Errorf("Scan() unresolved = %d, want 2", result.Unresolved)
		}
	})
}

func TestScan_StopSupersedes(t *testing.T) {
	svc := &mockCatalog{
		channelPlaylists: map[string][]models.Playlist{"ch1": {playlist("pl1", "Mix")}},
		playlistPages:    map[string]*models.VideoPage{"pl1": {Videos: []models.Video{video("v1", "ch1", "A")}}},
	}
	e := newTestEngine(svc)

	// Stop from inside the first progress callback; the scan drains and
	// reports itself superseded instead of persisting.
	cb := ScanCallbacks{OnProgress: func(done, total int) {
		e.Stop()
	}}

	result, err := e.Scan(context.Background(), []models.Video{video("v1", "ch1", "A")}, nil, cb)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !result.Superseded {
		t.Error("Scan() superseded = false, want true after Stop")
	}
}

func TestScan_NewScanSupersedesPrevious(t *testing.T) {
	svc := &mockCatalog{
		channelPlaylists: map[string][]models.Playlist{"ch1": {playlist("pl1", "Mix")}},
		playlistPages:    map[string]*models.VideoPage{"pl1": {Videos: []models.Video{video("v1", "ch1", "A")}}},
	}
	e := newTestEngine(svc)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	cb := ScanCallbacks{OnPlaylistFound: func(pl models.Playlist) int {
		once.Do(func() {
			close(started)
			<-release
		})
		return 1
	}}

	var wg sync.WaitGroup
	var first *ScanResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, _ = e.Scan(context.Background(), []models.Video{video("v1", "ch1", "A")}, nil, cb)
	}()

	<-started
	second, err := e.Scan(context.Background(), []models.Video{video("v2", "ch1", "B")}, nil, ScanCallbacks{})
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	close(release)
	wg.Wait()

	if first == nil || !first.Superseded {
		t.Error("first scan was not marked superseded by the second")
	}
	if second.Superseded {
		t.Error("second scan reported superseded, want live")
	}
}

func TestScan_CallbackNumberIsAuthoritative(t *testing.T) {
	svc := &mockCatalog{
		channelPlaylists: map[string][]models.Playlist{"ch1": {playlist("pl1", "Mix")}},
		playlistPages:    map[string]*models.VideoPage{"pl1": {Videos: []models.Video{video("v1", "ch1", "A")}}},
	}
	e := newTestEngine(svc)

	var mu sync.Mutex
	var indexedNumber int
	cb := ScanCallbacks{
		OnPlaylistFound: func(pl models.Playlist) int { return 42 },
		OnVideoIndexed: func(videoID, playlistID string, displayNumber int) {
			mu.Lock()
			indexedNumber = displayNumber
			mu.Unlock()
		},
	}

	result, err := e.Scan(context.Background(), []models.Video{video("v1", "ch1", "A")}, nil, cb)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := result.DisplayNumber["pl1"]; got != 42 {
		t.Errorf("DisplayNumber[pl1] = %d, want the callback's 42", got)
	}
	if indexedNumber != 42 {
		t.Errorf("OnVideoIndexed display number = %d, want 42", indexedNumber)
	}
}

func TestScan_NilCatalog(t *testing.T) {
	e := NewEngine(EngineOpts{Logger: shared.NewLogger(nil)})
	_, err := e.Scan(context.Background(), []models.Video{video("v1", "ch1", "A")}, nil, ScanCallbacks{})
	if !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("Scan() error = %v, want ErrServiceUnavailable", err)
	}
}
