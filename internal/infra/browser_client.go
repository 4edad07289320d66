package infra

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/playwright-community/playwright-go"
)

// BrowserClientは、ポータル操作で利用するブラウザ操作のインターフェースです。
type BrowserClient interface {
	Navigate(url string) error
	Click(selector string) error
	Fill(selector, value string) error
	WaitVisible(selector string, timeout time.Duration) error
	Exists(selector string) (bool, error)
	ExtractText(selector string) ([]string, error)
	GetHTML() (string, error)
	CurrentURL() (*url.URL, error)
	Reload() error
	OpenPopup(selector string) error
	ClosePopup() error
	Close() error
}

type browserClient struct {
	pw          *playwright.Playwright
	cfg         *config.AppConfig
	browser     playwright.Browser
	context     playwright.BrowserContext
	mainPage    playwright.Page
	page        playwright.Page
	downloadDir string

	mu           sync.Mutex
	downloadErrs []error
}

// NewBrowserClientは、Playwrightを用いたbrowserClientを生成します。
// ダウンロードされたファイルはcfg.Download.Dirに保存されます。
//
// args:
//
//	cfg: アプリケーション設定
//
// return:
//
//	*browserClient: 生成されたクライアント
//	error: 失敗時のエラー
func NewBrowserClient(cfg *config.AppConfig) (*browserClient, error) {
	if err := os.MkdirAll(cfg.Download.Dir, 0755); err != nil {
		return nil, fmt.Errorf("ダウンロードディレクトリの作成に失敗しました: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwrightの起動に失敗しました: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("ブラウザの起動に失敗しました: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
	}
	if cfg.Portal.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(cfg.Portal.UserAgent)
	}
	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("ブラウザコンテキストの作成に失敗しました: %w", err)
	}
	context.SetDefaultTimeout(float64(cfg.Portal.TimeoutSeconds * 1000))

	if err := setupResourceBlocking(context); err != nil {
		return nil, fmt.Errorf("リソースブロックの設定に失敗しました: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("ページの作成に失敗しました: %w", err)
	}

	b := &browserClient{
		pw:          pw,
		browser:     browser,
		context:     context,
		mainPage:    page,
		page:        page,
		cfg:         cfg,
		downloadDir: cfg.Download.Dir,
	}
	page.OnDownload(b.saveDownload)

	return b, nil
}

func setupResourceBlocking(context playwright.BrowserContext) error {
	return context.Route("**/*.{png,jpg,jpeg,gif,svg,woff,woff2,ttf,eot,otf}", func(route playwright.Route) {
		route.Abort()
	})
}

// saveDownloadはダウンロードをダウンロードディレクトリへ保存します。
// 完了の判定はDownloadWatcherがファイルサイズを監視して行います。
func (b *browserClient) saveDownload(download playwright.Download) {
	path := filepath.Join(b.downloadDir, download.SuggestedFilename())
	if err := download.SaveAs(path); err != nil {
		b.mu.Lock()
		b.downloadErrs = append(b.downloadErrs, fmt.Errorf("ダウンロードの保存に失敗しました: %s: %w", path, err))
		b.mu.Unlock()
	}
}

// DownloadErrorはこれまでに発生したダウンロード保存エラーを返し、記録を消去します。
func (b *browserClient) DownloadError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := errors.Join(b.downloadErrs...)
	b.downloadErrs = nil
	return err
}

// Navigateは、指定したURLにブラウザを遷移させます。
func (b *browserClient) Navigate(url string) error {
	if _, err := b.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(b.cfg.Portal.TimeoutSeconds * 1000)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("ナビゲーションに失敗しました: %w", err)
	}
	return nil
}

// Clickは、指定したセレクタの要素をクリックします。
func (b *browserClient) Click(selector string) error {
	locator := b.page.Locator(selector).First()
	if err := locator.WaitFor(); err != nil {
		return fmt.Errorf("セレクター '%s' の可視状態待機に失敗しました: %w", selector, err)
	}
	if err := locator.Click(); err != nil {
		return fmt.Errorf("%sのクリックに失敗しました: %w", selector, err)
	}
	return nil
}

// Fillは、入力欄を空にしてから値を入力します。
func (b *browserClient) Fill(selector, value string) error {
	locator := b.page.Locator(selector).First()
	if err := locator.WaitFor(); err != nil {
		return fmt.Errorf("セレクター '%s' の可視状態待機に失敗しました: %w", selector, err)
	}
	if err := locator.Fill(value); err != nil {
		return fmt.Errorf("%sへの入力に失敗しました: %w", selector, err)
	}
	return nil
}

// WaitVisibleは、要素が表示されるまで最大timeoutだけ待ちます。
func (b *browserClient) WaitVisible(selector string, timeout time.Duration) error {
	err := b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("セレクター '%s' が%v以内に表示されませんでした: %w", selector, timeout, err)
	}
	return nil
}

// GetHTMLは、現在のページのHTMLを取得します。
func (b *browserClient) GetHTML() (string, error) {
	if err := b.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		return "", fmt.Errorf("ページ読み込み待機に失敗しました: %w", err)
	}
	html, err := b.page.Content()
	if err != nil {
		return "", fmt.Errorf("ページコンテンツの取得に失敗しました: %w", err)
	}
	return html, nil
}

// CurrentURLは、現在のページのURLを返します。
func (b *browserClient) CurrentURL() (*url.URL, error) {
	rawURL := b.page.URL()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("現在のURLのパースに失敗しました: %w", err)
	}
	return parsed, nil
}

// Reloadは、現在のページを再読み込みします。
func (b *browserClient) Reload() error {
	if _, err := b.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("ページの再読み込みに失敗しました: %w", err)
	}
	return nil
}

// OpenPopupは、要素をクリックして開いた別ウィンドウを操作対象に切り替えます。
func (b *browserClient) OpenPopup(selector string) error {
	popup, err := b.page.ExpectPopup(func() error {
		return b.page.Locator(selector).First().Click()
	})
	if err != nil {
		return fmt.Errorf("%sからのポップアップを開けませんでした: %w", selector, err)
	}
	if err := popup.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		popup.Close()
		return fmt.Errorf("ポップアップの読み込み待機に失敗しました: %w", err)
	}
	b.page = popup
	return nil
}

// ClosePopupは、開いているポップアップを閉じて元のページに戻ります。
func (b *browserClient) ClosePopup() error {
	if b.page == b.mainPage {
		return nil
	}
	popup := b.page
	b.page = b.mainPage
	if err := popup.Close(); err != nil {
		return fmt.Errorf("ポップアップを閉じれませんでした: %w", err)
	}
	return nil
}

// Closeは、ブラウザとPlaywrightインスタンスを閉じます。
func (b *browserClient) Close() error {
	if err := b.context.Close(); err != nil {
		return fmt.Errorf("ブラウザコンテキストのクローズに失敗しました: %w", err)
	}

	if err := b.browser.Close(); err != nil {
		return fmt.Errorf("ブラウザを閉じれませんでした: %w", err)
	}

	if err := b.pw.Stop(); err != nil {
		return fmt.Errorf("playwrightの停止に失敗しました: %w", err)
	}
	return nil
}

// ExtractTextは、指定したセレクタに一致する要素のテキストを抽出します。
func (b *browserClient) ExtractText(selector string) ([]string, error) {
	locator := b.page.Locator(selector)
	if err := locator.First().WaitFor(); err != nil {
		return nil, fmt.Errorf("テキスト抽出前のセレクター待機に失敗しました: %w", err)
	}
	entries, err := locator.All()
	if err != nil {
		return nil, fmt.Errorf("エントリの取得に失敗しました: %w", err)
	}

	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		text, err := entry.TextContent()
		if err != nil {
			return nil, fmt.Errorf("テキストコンテンツの取得に失敗しました: %w", err)
		}

		texts = append(texts, text)
	}

	return texts, nil
}

// Existsは、指定したセレクタに一致する要素が存在するか判定します。
func (b *browserClient) Exists(selector string) (bool, error) {
	count, err := b.page.Locator(selector).Count()
	if err != nil {
		return false, fmt.Errorf("セレクター %s の要素数カウントに失敗しました: %w", selector, err)
	}
	return count > 0, nil
}
