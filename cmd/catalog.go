package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/crate/internal/formatter"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
)

// syncPageSize is the saved-tracks page size used when syncing the library.
const syncPageSize = 50

// Profile fetches and prints the current user's profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	profile, err := r.catalog.Profile(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.FormatProfile(profile))
}

// Search searches the catalog for tracks matching the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("searching catalog for %q", query)

	tracks, err := r.catalog.Search(ctx, token, query, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q", query))
	for i, track := range tracks {
		r.writePlain("%d. %s\n", i+1, formatter.FormatTrackLine(track))
	}

	return nil
}

// LibrarySync pages through the user's saved tracks and caches them locally.
func (r *Runner) LibrarySync(ctx context.Context, cmd *cli.Command) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("syncing saved tracks")

	synced := 0
	for offset := 0; ; offset += syncPageSize {
		saved, total, err := r.catalog.SavedTracks(ctx, token, syncPageSize, offset)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		for _, item := range saved {
			if err := r.tracks.Upsert(item.Track); err != nil {
				return fmt.Errorf("failed to cache track: %w", err)
			}
			synced++
		}

		if len(saved) == 0 || offset+len(saved) >= total {
			break
		}
	}

	r.writePlain("✓ Synced %d saved tracks\n", synced)
	return nil
}

// LibraryList prints the locally cached saved tracks.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	tracks, err := r.tracks.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("No cached tracks. Run 'crate library sync' first.\n")
	}

	count, err := r.tracks.Count()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Saved Tracks (%d cached)", count))
	for i, track := range tracks {
		r.writePlain("%d. %s\n", i+1, formatter.FormatTrackLine(track))
	}

	return nil
}

// LibraryExport writes the user's saved tracks to a file.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	export := &formatter.LibraryExport{}
	if profile, err := r.catalog.Profile(ctx, token); err == nil {
		export.Profile = profile
	} else {
		r.logger.Warn("failed to fetch profile for export", "error", err)
	}

	for offset := 0; ; offset += syncPageSize {
		saved, total, err := r.catalog.SavedTracks(ctx, token, syncPageSize, offset)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		export.Tracks = append(export.Tracks, saved...)

		if len(saved) == 0 || offset+len(saved) >= total {
			break
		}
	}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), result.TracksFile)
		if result.ProfileFile != "" {
			r.writePlain("✓ Profile metadata written to %s\n", result.ProfileFile)
		}
	case "md", "markdown":
		path, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), path)
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}

	return nil
}

// LibrarySave saves a track to the user's library.
func (r *Runner) LibrarySave(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("id")
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	if err := r.catalog.SaveTrack(ctx, token, trackID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	// Track metadata lands in the local cache on the next library sync.
	return r.writePlain("✓ Saved track %s\n", trackID)
}
