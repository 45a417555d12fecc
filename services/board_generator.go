package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"linear-board-sync/models"
)

const (
	boardPageName = "index.html"

	// assetsPublicDir is where assets land inside the output directory, and the path the page uses to reference them
	assetsPublicDir = "assets/png"
)

// logoExtensions are the asset file types shown in the page header
var logoExtensions = map[string]bool{
	".png":  true,
	".svg":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// GenerateResult summarizes one board generation run
type GenerateResult struct {
	ViewID       string
	ViewName     string
	IssueCount   int
	OutputPath   string
	AssetsCopied int
}

// BoardGenerator renders a Linear custom view as a static kanban page
type BoardGenerator interface {
	// Generate fetches the configured view and writes the page to the output directory
	Generate(ctx context.Context) (*GenerateResult, error)
}

// BoardGeneratorImpl implements the BoardGenerator interface
type BoardGeneratorImpl struct {
	linearService LinearService
	config        *models.Config
	logger        *zap.Logger
	now           func() time.Time
}

// NewBoardGenerator creates a new BoardGenerator
func NewBoardGenerator(linearService LinearService, config *models.Config, logger *zap.Logger) BoardGenerator {
	return &BoardGeneratorImpl{
		linearService: linearService,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

// findView returns the single custom view with the configured name
func (g *BoardGeneratorImpl) findView(ctx context.Context, name string) (models.CustomView, error) {
	views, err := g.linearService.FindCustomViews(ctx, name)
	if err != nil {
		return models.CustomView{}, fmt.Errorf("failed to look up view '%s': %w", name, err)
	}

	if len(views) == 0 {
		return models.CustomView{}, fmt.Errorf("view '%s' not found", name)
	}

	if len(views) > 1 {
		ids := make([]string, 0, len(views))
		for _, view := range views {
			ids = append(ids, view.ID)
		}
		return models.CustomView{}, fmt.Errorf("multiple views found for '%s'. Please use a unique name. Matches: %s", name, strings.Join(ids, ", "))
	}

	if views[0].ID == "" {
		return models.CustomView{}, errors.New("custom view id not found in response")
	}

	return views[0], nil
}

// Generate fetches the configured view's issues and writes the board page
func (g *BoardGeneratorImpl) Generate(ctx context.Context) (*GenerateResult, error) {
	viewName := g.config.Board.ViewName

	view, err := g.findView(ctx, viewName)
	if err != nil {
		return nil, err
	}

	limit := models.ClampIssueLimit(g.config.Board.IssueLimit)
	issues, err := g.linearService.FetchViewIssues(ctx, view.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues for view '%s': %w", viewName, err)
	}

	outputDir := g.config.Board.OutputDir
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	copied, err := copyAssets(g.config.Board.AssetsDir, filepath.Join(outputDir, filepath.FromSlash(assetsPublicDir)))
	if err != nil {
		return nil, err
	}
	if len(copied) > 0 {
		g.logger.Info("Copied assets", zap.Int("count", len(copied)), zap.String("destination", filepath.Join(outputDir, assetsPublicDir)))
	}

	columnOrder := g.config.Board.ColumnOrder
	if len(columnOrder) == 0 {
		columnOrder = models.DefaultColumnOrder
	}

	board := BuildBoard(viewName, issues, columnOrder, g.config.Board.WorkerURL, g.now())
	board.Logos = logoPaths(copied)

	var page bytes.Buffer
	if err := RenderBoard(&page, board); err != nil {
		return nil, fmt.Errorf("failed to render board: %w", err)
	}

	outputPath := filepath.Join(outputDir, boardPageName)
	if err := os.WriteFile(outputPath, page.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	g.logger.Info("Generated board",
		zap.String("path", outputPath),
		zap.String("view", viewName),
		zap.Int("issues", len(issues)),
		zap.Int("columns", len(board.Columns)))

	return &GenerateResult{
		ViewID:       view.ID,
		ViewName:     viewName,
		IssueCount:   len(issues),
		OutputPath:   outputPath,
		AssetsCopied: len(copied),
	}, nil
}

// logoPaths returns the page-relative paths of copied image assets
func logoPaths(names []string) []string {
	var logos []string
	for _, name := range names {
		if logoExtensions[strings.ToLower(filepath.Ext(name))] {
			logos = append(logos, path.Join(assetsPublicDir, name))
		}
	}
	return logos
}

// copyAssets copies the regular files of srcDir into dstDir and returns their
// names in sorted order. A missing srcDir is not an error.
func copyAssets(srcDir, dstDir string) ([]string, error) {
	if srcDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read assets directory %s: %w", srcDir, err)
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory %s: %w", dstDir, err)
	}

	var copied []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, entry.Name()), filepath.Join(dstDir, entry.Name())); err != nil {
			return nil, err
		}
		copied = append(copied, entry.Name())
	}

	sort.Strings(copied)
	return copied, nil
}

// copyFile copies one file, keeping its mode and modification time
func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, closeErr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set times on %s: %w", dst, err)
	}
	return nil
}
