package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/irpress/kavosh/internal/config"
	"github.com/irpress/kavosh/internal/database"
	"github.com/irpress/kavosh/internal/model"
	"github.com/irpress/kavosh/internal/persian"
)

// Language toggle lines shown at the top of every generated README. Each
// file links to its counterpart in the other language.
const (
	toggleFa = "[🇺🇸 English](README.en.md) | 🇮🇷 فارسی"
	toggleEn = "🇺🇸 English | [🇮🇷 فارسی](README.md)"
)

// StatsSource provides per-archive download statistics for the index
// files. *database.StateDB implements it.
type StatsSource interface {
	ArchiveStats(ctx context.Context, archive string) (*database.ArchiveStat, error)
}

// IndexWriter regenerates the bilingual README files that index the
// collection: a pair at the collection root listing every archive, and a
// pair inside each archive folder with its per-year holdings. The Persian
// file is always README.md so it is what GitHub renders by default.
type IndexWriter struct {
	root   string
	stats  StatsSource
	logger *slog.Logger
}

// IndexWriterOption configures an IndexWriter.
type IndexWriterOption func(*IndexWriter)

// WithIndexLogger sets the logger used for index generation.
func WithIndexLogger(logger *slog.Logger) IndexWriterOption {
	return func(w *IndexWriter) {
		w.logger = logger
	}
}

// NewIndexWriter creates an IndexWriter rooted at the collection output
// directory. A nil stats source produces indexes with empty year tables,
// which keeps index generation working when the state database is
// disabled.
func NewIndexWriter(root string, stats StatsSource, opts ...IndexWriterOption) *IndexWriter {
	w := &IndexWriter{
		root:  root,
		stats: stats,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.Default()
	}

	return w
}

// WriteArchiveIndex regenerates README.md and README.en.md inside the
// archive's folder. The year table reflects what has actually been
// downloaded, not what the configuration promises.
func (w *IndexWriter) WriteArchiveIndex(ctx context.Context, a *config.Archive) error {
	folder := a.SafeFolder()

	stat := &database.ArchiveStat{Archive: folder}
	if w.stats != nil {
		s, err := w.stats.ArchiveStats(ctx, folder)
		if err != nil {
			return fmt.Errorf("failed to load stats for %s: %w", folder, err)
		}
		stat = s
	}

	dir := filepath.Join(w.root, a.Category, folder)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	fa, err := w.archiveIndexFa(a, stat)
	if err != nil {
		return err
	}
	en, err := w.archiveIndexEn(a, stat)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, "README.md"), fa, 0644); err != nil {
		return fmt.Errorf("failed to write Persian index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.en.md"), en, 0644); err != nil {
		return fmt.Errorf("failed to write English index: %w", err)
	}

	w.logger.Debug("archive index refreshed",
		"archive", folder,
		"years", len(stat.Years),
		"files", stat.Files)
	return nil
}

func (w *IndexWriter) archiveIndexFa(a *config.Archive, stat *database.ArchiveStat) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.PlainText(toggleFa)
	md.PlainText("")
	md.PlainText(`<div dir="rtl">`)
	md.PlainText("")
	md.H1(persian.Normalize(a.TitleFa))
	md.PlainText("")
	md.PlainText(persian.Normalize(a.Description))
	md.PlainText("")
	md.H2("شماره‌های موجود")
	md.PlainText("")

	if len(stat.Years) == 0 {
		md.PlainText("هنوز شماره‌ای دریافت نشده است.")
	} else {
		rows := make([][]string, 0, len(stat.Years)+1)
		for _, ys := range stat.Years {
			rows = append(rows, []string{
				"[" + persian.Digits(ys.Year) + "](" + ys.Year + "/)",
				persian.Digits(strconv.Itoa(ys.Files)),
				persian.Digits(humanBytes(ys.Bytes)),
			})
		}
		rows = append(rows, []string{
			"**مجموع**",
			persian.Digits(strconv.Itoa(stat.Files)),
			persian.Digits(humanBytes(stat.Bytes)),
		})
		md.Table(markdown.TableSet{
			Header: []string{"سال", "تعداد فایل", "حجم"},
			Rows:   rows,
		})
	}

	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*تولید شده به صورت خودکار توسط کاوش*")
	md.PlainText("")
	md.PlainText("</div>")

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to render Persian index: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *IndexWriter) archiveIndexEn(a *config.Archive, stat *database.ArchiveStat) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.PlainText(toggleEn)
	md.PlainText("")
	md.H1(model.EnglishTitle(a.SafeFolder()))
	md.PlainText("")
	md.PlainText(persian.Normalize(a.Description))
	md.PlainText("")
	md.H2("Available Issues")
	md.PlainText("")

	if len(stat.Years) == 0 {
		md.PlainText("No issues downloaded yet.")
	} else {
		rows := make([][]string, 0, len(stat.Years)+1)
		for _, ys := range stat.Years {
			rows = append(rows, []string{
				"[" + ys.Year + "](" + ys.Year + "/)",
				strconv.Itoa(ys.Files),
				humanBytes(ys.Bytes),
			})
		}
		rows = append(rows, []string{
			"**Total**",
			strconv.Itoa(stat.Files),
			humanBytes(stat.Bytes),
		})
		md.Table(markdown.TableSet{
			Header: []string{"Year", "Files", "Size"},
			Rows:   rows,
		})
	}

	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated automatically by kavosh*")

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to render English index: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteRootIndex regenerates the collection-level README.md and
// README.en.md, listing every configured archive with links to its year
// folders.
func (w *IndexWriter) WriteRootIndex(archives []config.Archive) error {
	if err := os.MkdirAll(w.root, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fa, err := w.rootIndexFa(archives)
	if err != nil {
		return err
	}
	en, err := w.rootIndexEn(archives)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(w.root, "README.md"), fa, 0644); err != nil {
		return fmt.Errorf("failed to write Persian index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.root, "README.en.md"), en, 0644); err != nil {
		return fmt.Errorf("failed to write English index: %w", err)
	}

	w.logger.Debug("root index refreshed", "archives", len(archives))
	return nil
}

func (w *IndexWriter) rootIndexFa(archives []config.Archive) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.PlainText(toggleFa)
	md.PlainText("")
	md.PlainText(`<div dir="rtl">`)
	md.PlainText("")
	md.H1("آرشیو اسناد عمومی ایران")
	md.PlainText("")
	md.PlainText("این مخزن شامل مجموعه‌ای از اسناد عمومی ایران شامل روزنامه‌ها، مجلات و نشریات است که به صورت خودکار جمع‌آوری و سازماندهی شده‌اند.")
	md.PlainText("")
	md.H2("محتویات آرشیو")
	md.PlainText("")

	for i := range archives {
		a := &archives[i]
		md.H3(persian.Normalize(a.TitleFa))
		md.PlainText("")
		md.PlainText("سال‌های موجود: " + yearLinks(a, true))
		md.PlainText("")
	}

	md.H2("درباره این پروژه")
	md.PlainText("")
	md.PlainText("هدف از این پروژه حفظ و دسترسی آسان به اسناد تاریخی و معاصر ایران است. این آرشیو به صورت خودکار به‌روزرسانی می‌شود.")
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*آخرین به‌روزرسانی: " + persian.Digits(time.Now().Format("2006/01/02")) + "*")
	md.PlainText("")
	md.PlainText("</div>")

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to render Persian index: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *IndexWriter) rootIndexEn(archives []config.Archive) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.PlainText(toggleEn)
	md.PlainText("")
	md.H1("Iranian Public Archives")
	md.PlainText("")
	md.PlainText("This repository contains a collection of Iranian public documents including newspapers, magazines, and bulletins that are automatically collected and organized.")
	md.PlainText("")
	md.H2("Archive Contents")
	md.PlainText("")

	for i := range archives {
		a := &archives[i]
		md.H3(model.EnglishTitle(a.SafeFolder()))
		md.PlainText("")
		md.PlainText("Available years: " + yearLinks(a, false))
		md.PlainText("")
	}

	md.H2("About This Project")
	md.PlainText("")
	md.PlainText("The goal of this project is to preserve and provide easy access to Iranian historical and contemporary documents. The archive is updated automatically.")
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Last updated: " + time.Now().Format("2006/01/02") + "*")

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to render English index: %w", err)
	}
	return buf.Bytes(), nil
}

// yearLinks renders an archive's configured years as links to their
// folders, joined by pipes. Directory names always use ASCII digits; only
// the Persian link text uses Persian digits.
func yearLinks(a *config.Archive, fa bool) string {
	years := a.SortedYears()
	if len(years) == 0 {
		if fa {
			return "به زودی"
		}
		return "Coming soon"
	}

	out := ""
	for i, year := range years {
		if i > 0 {
			out += " | "
		}
		folded := persian.FoldDigits(year)
		text := folded
		if fa {
			text = persian.Digits(folded)
		}
		out += "[" + text + "](" + a.Category + "/" + a.SafeFolder() + "/" + folded + "/)"
	}
	return out
}
