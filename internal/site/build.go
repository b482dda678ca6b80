package site

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"folio/internal/util"
)

type BuildOptions struct {
	CleanDestination bool
	// Frames overrides the configured frame count of sketch snapshots.
	Frames int
}

// BuildStats counts what a build wrote.
type BuildStats struct {
	Pages   int
	Images  int
	Skipped int
	Assets  int
}

// Build renders every page into outputDir as a static site: the home page,
// the post list, one page per catalog post, the gallery and one PNG per
// running sketch. Posts that fail to load are logged and skipped.
func (s *Site) Build(ctx context.Context, outputDir string, opts BuildOptions) (BuildStats, error) {
	var stats BuildStats
	if err := prepareOutput(outputDir, opts.CleanDestination); err != nil {
		return stats, err
	}

	write := func(rel, page string, data PageData) error {
		data.BaseHref = util.ComputeBaseHref(rel)
		data.Ext = ".html"
		if err := s.renderPage(filepath.Join(outputDir, rel), page, data); err != nil {
			return fmt.Errorf("failed to render page %s: %w", rel, err)
		}
		stats.Pages++
		return nil
	}

	if err := write("index.html", PageHome, s.HomePage(ctx)); err != nil {
		return stats, err
	}
	if err := write(filepath.Join("blog", "index.html"), PagePosts, s.PostsPage(ctx)); err != nil {
		return stats, err
	}
	for _, entry := range s.Blog.Posts(ctx) {
		data, err := s.PostPage(ctx, entry.ID)
		if err != nil {
			s.log.WithField("post", entry.ID).WithError(err).Warn("skipping post")
			stats.Skipped++
			continue
		}
		if err := write(filepath.Join("blog", entry.ID+".html"), PagePost, data); err != nil {
			return stats, err
		}
	}

	gallery, err := s.GalleryPage(ctx)
	if err != nil {
		return stats, fmt.Errorf("gallery render failed: %w", err)
	}
	if err := write(filepath.Join("art", "index.html"), PageGallery, gallery); err != nil {
		return stats, err
	}
	frames := opts.Frames
	if frames <= 0 {
		frames = s.Config.Canvas.Frames
	}
	n, err := s.ExportGallery(filepath.Join(outputDir, "art"), frames)
	stats.Images += n
	if err != nil {
		return stats, err
	}

	if s.Config.ContentURL == "" {
		n, err := copyStaticAssets(filepath.Join(s.Config.ContentDir, "static"), filepath.Join(outputDir, "static"))
		stats.Assets += n
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// ExportGallery advances every running sketch by frames frames and writes
// one PNG per sketch into dir. Mounts without a sketch are skipped.
func (s *Site) ExportGallery(dir string, frames int) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}
	written := 0
	for _, inst := range s.Gallery.Instances() {
		img, err := s.Gallery.Snapshot(inst.Mount.ID, frames)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, inst.Mount.ID+".png")
		if err := writePNG(path, img); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written++
	}
	return written, nil
}

func prepareOutput(outputDir string, clean bool) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if !clean {
		return nil
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(outputDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// renderPage executes the page template and writes the output to a file.
func (s *Site) renderPage(outPath, page string, data PageData) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	return s.Render(outFile, page, data)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// copyStaticAssets copies files from the static directory to the output directory.
func copyStaticAssets(staticDir, outputDir string) (int, error) {
	// Extensions considered static assets.
	allowedExts := map[string]bool{
		".css": true, ".js": true, ".txt": true, ".svg": true,
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	}
	copied := 0
	err := filepath.Walk(staticDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !allowedExts[filepath.Ext(info.Name())] {
			return nil
		}
		rel, err := filepath.Rel(staticDir, path)
		if err != nil {
			return err
		}
		if err := copyFile(path, filepath.Join(outputDir, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return copied, nil
	}
	return copied, err
}

func copyFile(from, to string) error {
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return err
	}
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(to)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
