// package formatter renders reconciliation results to various formats (CSV, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/shared"
	"github.com/ferrovax/playdex/internal/tasks"
)

// ScanReportText renders a scan result as a human-readable summary.
func ScanReportText(result *tasks.ScanResult) []byte {
	var buf bytes.Buffer

	if result.Superseded {
		buf.WriteString("Scan superseded; results discarded.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("Scanned %d videos: %d resolved, %d unresolved\n",
		result.Total, result.Resolved, result.Unresolved))
	buf.WriteString(fmt.Sprintf("Fallback searches used: %d\n", result.SearchesUsed))

	if len(result.NewPlaylists) > 0 {
		buf.WriteString("\nPlaylists discovered:\n")
		for _, pl := range result.NewPlaylists {
			number := result.DisplayNumber[pl.ID]
			buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", number, pl.Title, pl.ID))
		}
	}

	return buf.Bytes()
}

// ScanReportJSON renders a scan result as indented JSON.
func ScanReportJSON(result *tasks.ScanResult) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// SnapshotToCSV converts a snapshot to CSV with one row per video:
// VideoID, Title, Channel, PlaylistID, DisplayNumber
func SnapshotToCSV(doc models.SnapshotDocument) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"VideoID", "Title", "Channel", "PlaylistID", "DisplayNumber"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, video := range sortedVideos(doc) {
		record := []string{
			video.ID,
			video.Title,
			video.ChannelTitle,
			video.PlaylistID,
			strconv.Itoa(video.PlaylistIndex),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SnapshotToText converts a snapshot to plain text, grouped by playlist in
// display-number order. Videos without an owner are listed last.
func SnapshotToText(doc models.SnapshotDocument, numbers map[string]int) []byte {
	var buf bytes.Buffer

	playlists := make([]models.Playlist, 0, len(doc.Playlists))
	for _, pl := range doc.Playlists {
		playlists = append(playlists, pl)
	}
	sort.Slice(playlists, func(i, j int) bool {
		ni, iOK := numbers[playlists[i].ID]
		nj, jOK := numbers[playlists[j].ID]
		if iOK != jOK {
			return iOK
		}
		if ni != nj {
			return ni < nj
		}
		return playlists[i].ID < playlists[j].ID
	})

	for _, pl := range playlists {
		if number, ok := numbers[pl.ID]; ok {
			buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", number, pl.Title, pl.ID))
		} else {
			buf.WriteString(fmt.Sprintf("-. %s (%s)\n", pl.Title, pl.ID))
		}
		if pl.VideoCount != models.VideoCountUnknown {
			buf.WriteString(fmt.Sprintf("   Videos: %d\n", pl.VideoCount))
		}
		for _, video := range sortedVideos(doc) {
			if video.PlaylistID == pl.ID {
				buf.WriteString(fmt.Sprintf("   - %s (%s)\n", video.Title, video.ID))
			}
		}
	}

	unowned := 0
	for _, video := range sortedVideos(doc) {
		if video.PlaylistID == "" {
			if unowned == 0 {
				buf.WriteString("\nUnresolved videos:\n")
			}
			unowned++
			buf.WriteString(fmt.Sprintf("   - %s (%s)\n", video.Title, video.ID))
		}
	}

	return buf.Bytes()
}

// SnapshotToJSON renders a snapshot document as indented JSON.
func SnapshotToJSON(doc models.SnapshotDocument) ([]byte, error) {
	return shared.MarshalJSON(doc, true)
}

// sortedVideos returns the snapshot's videos ordered by id for stable output.
func sortedVideos(doc models.SnapshotDocument) []models.Video {
	videos := make([]models.Video, 0, len(doc.Videos))
	for _, v := range doc.Videos {
		videos = append(videos, v)
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].ID < videos[j].ID })
	return videos
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	VideosFile    string
	PlaylistsFile string
}

// WriteCSVExport exports a snapshot to CSV with an accompanying playlists
// JSON file. Creates {base}_videos.csv and {base}_playlists.json.
func WriteCSVExport(doc models.SnapshotDocument, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "playdex"
	}

	csvData, err := SnapshotToCSV(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	videosFile := baseFilepath + "_videos.csv"
	if err := os.WriteFile(videosFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	playlistsJSON, err := shared.MarshalJSON(doc.Playlists, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate playlists JSON: %w", err)
	}

	playlistsFile := baseFilepath + "_playlists.json"
	if err := os.WriteFile(playlistsFile, playlistsJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write playlists file: %w", err)
	}

	return &CSVExportResult{
		VideosFile:    videosFile,
		PlaylistsFile: playlistsFile,
	}, nil
}

// WriteTextExport exports a snapshot to plain text.
//
// Defaults to playdex_snapshot.txt as the filename.
func WriteTextExport(doc models.SnapshotDocument, numbers map[string]int, filepath string) (string, error) {
	if filepath == "" {
		filepath = "playdex_snapshot.txt"
	}

	textData := SnapshotToText(doc, numbers)
	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
