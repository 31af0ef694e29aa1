package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/assessor/assessment"
)

const logDebounceInterval = 150 * time.Millisecond

const allStatuses = "すべて"

type uiState struct {
	service *assessment.Service
	cfg     assessment.Config
	logger  *zap.Logger
	sink    *logSink

	mu       sync.Mutex
	session  *assessment.Session
	kind     assessment.AssessmentType
	rows     []assessment.SessionItem
	filter   assessment.Filter
	columns  []tableColumn
	catalog  []assessment.CatalogEntry
	byName   map[string]assessment.AssessmentType
	logKick  chan struct{}
	uploadMu sync.Mutex

	w            fyne.Window
	typeSel      *widget.Select
	search       *widget.Entry
	statusSel    *widget.Select
	resTbl       *widget.Table
	stats        *widget.Label
	status       *widget.Label
	progress     *widget.ProgressBar
	log          *widget.Entry
	statusBind   binding.String
	progressBind binding.Float
	logBind      binding.String

	loadBtn   *widget.Button
	uploadBtn *widget.Button
	exportBtn *widget.Button
}

func buildUI(a fyne.App, svc *assessment.Service, cfg assessment.Config, logger *zap.Logger, sink *logSink) *uiState {
	u := &uiState{
		service: svc,
		cfg:     cfg,
		logger:  logger,
		sink:    sink,
		catalog: assessment.Catalog(),
		byName:  make(map[string]assessment.AssessmentType),
		columns: sessionColumns(),
	}
	u.w = a.NewWindow("Checklist Assessor - 取込と照合")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("準備完了")
	u.progressBind = binding.NewFloat()
	u.logBind = binding.NewString()
	u.startLogUpdater()

	names := make([]string, len(u.catalog))
	for i, e := range u.catalog {
		names[i] = e.Name
		u.byName[e.Name] = e.Type
	}
	u.typeSel = widget.NewSelect(names, nil)
	u.typeSel.SetSelected(assessment.CatalogName(assessment.AssessmentType(cfg.DefaultType)))

	u.search = widget.NewEntry()
	u.search.SetPlaceHolder("ID・本文・カテゴリで検索")
	u.search.OnChanged = func(s string) {
		u.mu.Lock()
		u.filter.Search = s
		u.mu.Unlock()
		u.refreshRows()
	}
	statusOpts := []string{allStatuses}
	for _, st := range assessment.Statuses() {
		statusOpts = append(statusOpts, string(st))
	}
	u.statusSel = widget.NewSelect(statusOpts, func(v string) {
		u.mu.Lock()
		u.filter.Status = ""
		if v != allStatuses {
			u.filter.Status = assessment.Status(v)
		}
		u.mu.Unlock()
		u.refreshRows()
	})
	u.statusSel.SetSelected(allStatuses)

	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("処理ログ")
	u.log.Disable()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.progress = widget.NewProgressBarWithData(u.progressBind)
	u.progress.Hide()
	u.stats = widget.NewLabel("チェックリスト未読込")

	u.loadBtn = widget.NewButtonWithIcon("チェックリスト読込", theme.FolderOpenIcon(), func() { u.onLoadChecklist() })
	u.uploadBtn = widget.NewButtonWithIcon("評価ファイル取込", theme.UploadIcon(), func() { u.onUpload() })
	u.exportBtn = widget.NewButtonWithIcon("JSONエクスポート", theme.DocumentSaveIcon(), func() { u.onExport() })
	settingsBtn := widget.NewButtonWithIcon("設定", theme.SettingsIcon(), func() { u.openSettings() })

	u.resTbl = widget.NewTable(
		func() (int, int) {
			u.mu.Lock()
			defer u.mu.Unlock()
			return len(u.rows) + 1, len(u.columns)
		},
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			lbl.Truncation = fyne.TextTruncateEllipsis
			return lbl
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Col >= len(u.columns) {
				lbl.SetText("")
				return
			}
			if id.Row == 0 {
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				lbl.SetText(u.columns[id.Col].Title)
				return
			}
			lbl.TextStyle = fyne.TextStyle{}
			u.mu.Lock()
			var item assessment.SessionItem
			ok := id.Row-1 < len(u.rows)
			if ok {
				item = u.rows[id.Row-1]
			}
			u.mu.Unlock()
			if !ok {
				lbl.SetText("")
				return
			}
			lbl.SetText(u.columns[id.Col].Render(item))
		},
	)
	for i, col := range u.columns {
		u.resTbl.SetColumnWidth(i, col.Width)
	}
	u.resTbl.OnSelected = func(id widget.TableCellID) {
		u.resTbl.UnselectAll()
		if id.Row <= 0 {
			return
		}
		u.mu.Lock()
		ok := id.Row-1 < len(u.rows)
		var item assessment.SessionItem
		if ok {
			item = u.rows[id.Row-1]
		}
		u.mu.Unlock()
		if ok {
			u.editItem(item)
		}
	}

	left := container.NewVBox(
		widget.NewLabelWithStyle("評価タイプ", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.typeSel,
		container.NewGridWithColumns(2, u.loadBtn, u.uploadBtn),
		container.NewGridWithColumns(2, u.exportBtn, settingsBtn),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("進捗", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.progress,
		u.status,
		u.stats,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("ログ", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWrap(fyne.NewSize(360, 320), u.log),
	)
	filters := container.NewBorder(nil, nil, nil, u.statusSel, u.search)
	right := container.NewBorder(filters, nil, nil, nil, u.resTbl)
	split := container.NewHSplit(left, right)
	split.Offset = 0.3

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1280, 780))
	return u
}

func (u *uiState) selectedType() assessment.AssessmentType {
	if t, ok := u.byName[u.typeSel.Selected]; ok {
		return t
	}
	return assessment.AssessmentType(u.cfg.DefaultType)
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		for _, btn := range []*widget.Button{u.loadBtn, u.uploadBtn, u.exportBtn} {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
		if b {
			u.progress.Show()
		} else {
			u.progress.Hide()
		}
	})
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) startLogUpdater() {
	u.logKick = make(chan struct{}, 1)
	u.sink.Notify(func() {
		select {
		case u.logKick <- struct{}{}:
		default:
		}
	})
	go func() {
		timer := time.NewTimer(logDebounceInterval)
		if !timer.Stop() {
			<-timer.C
		}
		for {
			select {
			case <-u.logKick:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(logDebounceInterval)
			case <-timer.C:
				_ = u.logBind.Set(u.sink.Text())
			}
		}
	}()
}

// setSession replaces the active session and redraws the table.
func (u *uiState) setSession(s *assessment.Session) {
	u.mu.Lock()
	u.session = s
	u.kind = s.Type()
	u.mu.Unlock()
	fyne.Do(func() {
		u.typeSel.SetSelected(assessment.CatalogName(s.Type()))
	})
	u.refreshRows()
}

func (u *uiState) refreshRows() {
	u.mu.Lock()
	s := u.session
	f := u.filter
	u.mu.Unlock()
	if s == nil {
		return
	}
	rows := s.Filter(f)
	summary := formatStatistics(s.Statistics())
	u.mu.Lock()
	u.rows = rows
	u.mu.Unlock()
	fyne.Do(func() {
		u.stats.SetText(summary)
		u.resTbl.Refresh()
	})
}

func (u *uiState) currentSession() *assessment.Session {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.session
}

// ensureSession returns a session for kind, loading its checklist when the
// active session belongs to another type.
func (u *uiState) ensureSession(ctx context.Context, kind assessment.AssessmentType) (*assessment.Session, error) {
	u.mu.Lock()
	s, current := u.session, u.kind
	u.mu.Unlock()
	if s != nil && (kind == "" || kind == current) {
		return s, nil
	}
	if kind == "" {
		kind = u.selectedType()
	}
	cl, err := u.service.LoadChecklist(ctx, kind)
	if err != nil {
		return nil, err
	}
	s = assessment.NewSession(cl, u.service.Config().Reviewer)
	u.setSession(s)
	return s, nil
}

func (u *uiState) onLoadChecklist() {
	kind := u.selectedType()
	u.setBusy(true)
	u.setStatus("チェックリスト読込中...")
	go func() {
		defer u.setBusy(false)
		cl, err := u.service.LoadChecklist(context.Background(), kind)
		if err != nil {
			u.fail("チェックリストの読み込みに失敗しました", err)
			return
		}
		u.setSession(assessment.NewSession(cl, u.service.Config().Reviewer))
		u.setStatus(fmt.Sprintf("%s を読み込みました (%d件)", assessment.CatalogName(kind), len(cl.Items)))
	}()
}

func (u *uiState) onUpload() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			go u.importProgress(path, data)
			return
		}
		format, err := assessment.FormatFromPath(path)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		go u.uploadGrid(path, format, data)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".tsv", ".xlsx", ".xlsm", ".json"}))
	fd.Show()
}

func (u *uiState) uploadGrid(path string, format assessment.GridFormat, data []byte) {
	u.uploadMu.Lock()
	defer u.uploadMu.Unlock()
	u.setBusy(true)
	defer u.setBusy(false)
	name := filepath.Base(path)
	u.setStatus(fmt.Sprintf("%s を取込中...", name))
	_ = u.progressBind.Set(0)

	grid, err := assessment.ReadGrid(bytes.NewReader(data), format)
	if err != nil {
		u.fail("ファイルを読み込めませんでした", err)
		return
	}
	u.service.OnProgress(func(stage assessment.Stage, done, total int) {
		if total == 0 {
			return
		}
		_ = u.progressBind.Set(float64(done) / float64(total))
		u.setStatus(fmt.Sprintf("%s %d/%d", stageLabel(stage), done, total))
	})
	defer u.service.OnProgress(nil)

	ctx := context.Background()
	res, err := u.service.Upload(ctx, grid)
	if err != nil {
		u.fail("取込に失敗しました", err)
		return
	}
	var s *assessment.Session
	if res.Checklist != nil {
		s = assessment.NewSession(res.Checklist, u.service.Config().Reviewer)
		u.setSession(s)
	} else if s, err = u.ensureSession(ctx, ""); err != nil {
		u.fail("照合用チェックリストがありません", err)
		return
	}
	applied, err := s.ApplyProgress(res.Items)
	if err != nil {
		u.fail("進捗を反映できませんでした", err)
		return
	}
	u.refreshRows()
	u.logger.Info("upload applied",
		zap.String("file", name),
		zap.String("type", string(res.AssessmentType)),
		zap.Int("applied", applied),
		zap.Int("dropped", len(res.Dropped)),
		zap.Int("unresolved", len(res.Unresolved)))
	u.setStatus(fmt.Sprintf("%s: %d件反映 / 未照合 %d件", name, applied, len(res.Dropped)+len(res.Unresolved)))
	if res.ReconcileErr != nil {
		fyne.Do(func() {
			dialog.ShowInformation("照合スキップ", "IDのない行は照合されませんでした:\n"+res.ReconcileErr.Error(), u.w)
		})
	}
}

func (u *uiState) importProgress(path string, data []byte) {
	kind, entries, err := assessment.DecodeUpload(data)
	if err != nil {
		u.fail("進捗ファイルが不正です", err)
		return
	}
	s, err := u.ensureSession(context.Background(), kind)
	if err != nil {
		u.fail("チェックリストの読み込みに失敗しました", err)
		return
	}
	applied, err := s.ApplyEntries(entries)
	if err != nil {
		u.fail("進捗を反映できませんでした", err)
		return
	}
	u.refreshRows()
	u.logger.Info("progress imported", zap.String("file", filepath.Base(path)), zap.Int("applied", applied))
	u.setStatus(fmt.Sprintf("%d件の進捗を反映しました", applied))
}

func (u *uiState) onExport() {
	s := u.currentSession()
	if s == nil {
		dialog.ShowInformation("情報", "出力データがありません", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		enc := json.NewEncoder(uc)
		enc.SetIndent("", "  ")
		doc := s.Export(assessment.DefaultExportOptions())
		if err := enc.Encode(doc); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("assessment exported",
			zap.String("path", uc.URI().Path()),
			zap.Int("items", len(doc.Items)))
	}, u.w)
	fd.SetFileName(fmt.Sprintf("%s_assessment.json", s.Type()))
	fd.Show()
}

func (u *uiState) editItem(item assessment.SessionItem) {
	s := u.currentSession()
	if s == nil {
		return
	}
	opts := make([]string, 0, 4)
	for _, st := range assessment.Statuses() {
		opts = append(opts, string(st))
	}
	statusSel := widget.NewSelect(opts, nil)
	statusSel.SetSelected(string(item.Status))
	comment := widget.NewMultiLineEntry()
	comment.SetText(item.Comment)
	comment.Wrapping = fyne.TextWrapWord
	text := widget.NewLabel(item.Text)
	text.Wrapping = fyne.TextWrapWord

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "ID", Widget: widget.NewLabel(item.ID)},
		{Text: "推奨事項", Widget: text},
		{Text: "ステータス", Widget: statusSel},
		{Text: "コメント", Widget: comment},
	}}
	d := dialog.NewCustomConfirm("項目の更新", "保存", "キャンセル", form, func(ok bool) {
		if !ok {
			return
		}
		s.UpdateItem(item.ID, assessment.Status(statusSel.Selected), comment.Text)
		u.refreshRows()
	}, u.w)
	d.Resize(fyne.NewSize(560, 360))
	d.Show()
}

func (u *uiState) openSettings() {
	cfg := u.service.Config()
	threshold := widget.NewEntry()
	threshold.SetText(strconv.FormatFloat(cfg.MatchThreshold, 'f', 2, 64))
	reviewer := widget.NewEntry()
	reviewer.SetText(cfg.Reviewer)

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "照合しきい値", Widget: threshold},
		{Text: "レビュー担当", Widget: reviewer},
	}}
	dialog.NewCustomConfirm("設定", "OK", "キャンセル", form, func(ok bool) {
		if !ok {
			return
		}
		next := cfg
		if v, err := strconv.ParseFloat(threshold.Text, 64); err == nil && v > 0 && v <= 1 {
			next.MatchThreshold = v
		}
		next.Reviewer = strings.TrimSpace(reviewer.Text)
		u.service.UpdateConfig(next)
		u.logger.Info("settings updated",
			zap.Float64("matchThreshold", next.MatchThreshold),
			zap.String("reviewer", next.Reviewer))
	}, u.w).Show()
}

func (u *uiState) fail(msg string, err error) {
	if err == nil {
		err = errors.New(msg)
	}
	u.logger.Error(msg, zap.Error(err))
	u.setStatus("エラー")
	fyne.Do(func() {
		dialog.ShowError(fmt.Errorf("%s: %w", msg, err), u.w)
	})
}
