// package formatter provides functions to export saved-track libraries to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
)

// LibraryExport bundles a user's saved tracks with the profile they belong to.
type LibraryExport struct {
	Profile *services.Profile     `json:"profile,omitempty"`
	Tracks  []services.SavedTrack `json:"tracks"`
}

// ExportToCSV converts a LibraryExport to CSV format with columns: ID, Title, Artist, Album, Duration, ISRC, Saved At
func ExportToCSV(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "ISRC", "Saved At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, saved := range export.Tracks {
		record := []string{
			saved.Track.ID,
			saved.Track.Title,
			saved.Track.Artist,
			saved.Track.Album,
			strconv.Itoa(saved.Track.Duration),
			saved.Track.ISRC,
			saved.AddedAt,
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

// ExportToMarkdown converts a LibraryExport to Markdown format
func ExportToMarkdown(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	title := "Saved Tracks"
	if export.Profile != nil && export.Profile.DisplayName != "" {
		title = fmt.Sprintf("%s's Saved Tracks", export.Profile.DisplayName)
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, saved := range export.Tracks {
		duration := shared.FormatDuration(saved.Track.Duration)
		albumPart := ""
		if saved.Track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", saved.Track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, saved.Track.Artist, saved.Track.Title, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a LibraryExport to plain text format
func ExportToText(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	if export.Profile != nil && export.Profile.DisplayName != "" {
		buf.WriteString(fmt.Sprintf("Library: %s\n", export.Profile.DisplayName))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, saved := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, saved.Track.Artist, saved.Track.Title))
	}

	return buf.Bytes(), nil
}

// FormatTrackLine renders a single track for list output.
func FormatTrackLine(track services.Track) string {
	line := fmt.Sprintf("%s - %s", track.Artist, track.Title)
	if track.Album != "" {
		line += fmt.Sprintf(" (%s)", track.Album)
	}
	return fmt.Sprintf("%s [%s]", line, shared.FormatDuration(track.Duration))
}

// FormatProfile renders a user profile for plain-text output.
func FormatProfile(profile *services.Profile) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s (%s)\n", profile.DisplayName, profile.ID))
	if profile.Email != "" {
		buf.WriteString(fmt.Sprintf("Email: %s\n", profile.Email))
	}
	if profile.Country != "" {
		buf.WriteString(fmt.Sprintf("Country: %s\n", profile.Country))
	}
	if profile.Product != "" {
		buf.WriteString(fmt.Sprintf("Plan: %s\n", profile.Product))
	}
	buf.WriteString(fmt.Sprintf("Followers: %d\n", profile.Followers))

	return buf.String()
}

// ToProfileJSON generates a JSON representation of a user profile
func ToProfileJSON(profile *services.Profile) ([]byte, error) {
	return shared.MarshalJSON(profile, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile  string
	ProfileFile string
}

// WriteCSVExport exports a library to CSV format with an accompanying profile JSON file.
//
// Defaults to "library" as the base filename & creates {base}_tracks.csv and optionally {base}_profile.json
func WriteCSVExport(export *LibraryExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "library"
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	result := &CSVExportResult{TracksFile: tracksFile}

	if export.Profile != nil {
		profileJSON, err := ToProfileJSON(export.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to generate profile JSON: %w", err)
		}

		profileFile := baseFilepath + "_profile.json"
		if err := os.WriteFile(profileFile, profileJSON, 0644); err != nil {
			return nil, fmt.Errorf("failed to write profile file: %w", err)
		}
		result.ProfileFile = profileFile
	}

	return result, nil
}

// WriteMarkdownExport exports a library to Markdown format.
//
// Defaults to library.md as the filename.
func WriteMarkdownExport(export *LibraryExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = "library.md"
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports a library to plain text format.
//
// Defaults to library_tracks.txt as the filename.
func WriteTextExport(export *LibraryExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = "library_tracks.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
