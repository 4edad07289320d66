package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrDownloadTimeoutはダウンロードが上限時間内に完了しなかったことを表します。
var ErrDownloadTimeout = errors.New("ダウンロードがタイムアウトしました")

// 書き込み途中のファイルの拡張子
var partialSuffixes = []string{".crdownload", ".part", ".tmp", ".download"}

// FileInfoはダウンロードディレクトリ内のファイルの状態です。
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// DownloadSnapshotはWaitの前に記録したファイルの状態です。
type DownloadSnapshot map[string]FileInfo

// unchangedはfが記録時からサイズも更新日時も変わっていないかを返します。
// 同じ名前で上書きされたファイルは新しいファイルとして扱います。
func (s DownloadSnapshot) unchanged(f FileInfo) bool {
	prev, ok := s[f.Name]
	return ok && prev.Size == f.Size && prev.ModTime.Equal(f.ModTime)
}

// DirReaderはディレクトリ内のファイル一覧を返します。
type DirReader interface {
	List(dir string) ([]FileInfo, error)
}

// Clockは現在時刻と待機を提供します。
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type osDirReader struct{}

func (osDirReader) List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// 一覧取得後に消えたファイル
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return files, nil
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DownloadWatcherOptionsはDownloadWatcherの設定です。
type DownloadWatcherOptions struct {
	Dir      string
	Stable   time.Duration // サイズが変わらない時間がこれ以上になったら完了
	Timeout  time.Duration // 全体の上限
	Interval time.Duration // ポーリング間隔
	FS       DirReader
	Clock    Clock
}

// DownloadWatcherはダウンロードディレクトリをポーリングして、ファイルの保存完了を判定します。
type DownloadWatcher struct {
	dir      string
	stable   time.Duration
	timeout  time.Duration
	interval time.Duration
	fs       DirReader
	clock    Clock
}

func NewDownloadWatcher(opts DownloadWatcherOptions) *DownloadWatcher {
	w := &DownloadWatcher{
		dir:      opts.Dir,
		stable:   opts.Stable,
		timeout:  opts.Timeout,
		interval: opts.Interval,
		fs:       opts.FS,
		clock:    opts.Clock,
	}
	if w.fs == nil {
		w.fs = osDirReader{}
	}
	if w.clock == nil {
		w.clock = realClock{}
	}
	if w.interval <= 0 {
		w.interval = 500 * time.Millisecond
	}
	return w
}

// Snapshotは現在ディレクトリにあるファイルの状態を返します。Waitの前に呼び、既存ファイルを除外するのに使います。
func (w *DownloadWatcher) Snapshot() (DownloadSnapshot, error) {
	files, err := w.fs.List(w.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DownloadSnapshot{}, nil
		}
		return nil, fmt.Errorf("ダウンロードディレクトリの読み込みに失敗しました: %w", err)
	}
	snapshot := make(DownloadSnapshot, len(files))
	for _, f := range files {
		snapshot[f.Name] = f
	}
	return snapshot, nil
}

// Waitはbeforeに含まれない、またはbeforeから変化したファイルが現れ、そのサイズが一定時間変わらなくなるまで待ち、パスを返します。
// 上限時間を超えた場合はErrDownloadTimeoutを返します。
func (w *DownloadWatcher) Wait(ctx context.Context, before DownloadSnapshot) (string, error) {
	start := w.clock.Now()
	deadline := start.Add(w.timeout)

	var (
		candidate   string
		lastSize    int64 = -1
		stableSince time.Time
	)

	for {
		now := w.clock.Now()

		files, err := w.fs.List(w.dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("ダウンロードディレクトリの読み込みに失敗しました: %w", err)
		}

		if f, ok := newestCompleted(files, before); ok {
			if f.Name != candidate || f.Size != lastSize {
				candidate = f.Name
				lastSize = f.Size
				stableSince = now
			} else if f.Size > 0 && now.Sub(stableSince) >= w.stable {
				return filepath.Join(w.dir, candidate), nil
			}
		}

		if !now.Before(deadline) {
			return "", fmt.Errorf("%v以内に完了しませんでした: %w", w.timeout, ErrDownloadTimeout)
		}
		if err := w.clock.Sleep(ctx, w.interval); err != nil {
			return "", err
		}
	}
}

func newestCompleted(files []FileInfo, before DownloadSnapshot) (FileInfo, bool) {
	var (
		newest FileInfo
		found  bool
	)
	for _, f := range files {
		if before.unchanged(f) {
			continue
		}
		if isPartial(f.Name) {
			continue
		}
		if !found || f.ModTime.After(newest.ModTime) {
			newest = f
			found = true
		}
	}
	return newest, found
}

func isPartial(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ".") {
		return true
	}
	for _, s := range partialSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
