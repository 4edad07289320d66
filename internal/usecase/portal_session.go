package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/nrad-K/trend-crawler/internal/constants"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
	"github.com/nrad-K/trend-crawler/internal/infra"
	"github.com/nrad-K/trend-crawler/internal/logger"
	"github.com/nrad-K/trend-crawler/internal/retry"
)

// ErrPortalErrorPageはポータルのエラーページに遷移したことを表します。このエラーは再試行しません。
var ErrPortalErrorPage = errors.New("ポータルのエラーページに遷移しました")

// ErrAttributeEmptyはプレビュー画面の項目が取得できなかったことを表します。
var ErrAttributeEmpty = errors.New("プレビューの項目が空です")

// DownloadWaiterはダウンロードの完了を待つインターフェースです。
type DownloadWaiter interface {
	Snapshot() (infra.DownloadSnapshot, error)
	Wait(ctx context.Context, before infra.DownloadSnapshot) (string, error)
}

// downloadErrorReporterはブラウザ側で発生したダウンロード保存エラーを返します。
type downloadErrorReporter interface {
	DownloadError() error
}

// Credentialsはポータルのログイン情報です。
type Credentials struct {
	LoginID  string
	Password string
}

// PortalControllerArgsは、PortalControllerを構築するための引数を保持します。
//
// フィールド:
//
//	Cfg         : アプリケーション設定
//	Credentials : ログイン情報
//	Client      : ブラウザクライアント
//	Downloads   : ダウンロード完了の監視
//	Logger      : ロガー
//	Sleep       : 待機関数。nilの場合はcontextを考慮して待つ
type PortalControllerArgs struct {
	Cfg         *config.AppConfig
	Credentials Credentials
	Client      infra.BrowserClient
	Downloads   DownloadWaiter
	Logger      logger.AppLogger
	Sleep       func(ctx context.Context, d time.Duration) error
}

// PortalControllerはポータルの画面遷移を状態機械として扱います。
// 遷移はすべてmodel.Sessionを受け取り、成功したら状態と現在のURLを更新します。
type PortalController struct {
	cfg         *config.AppConfig
	credentials Credentials
	client      infra.BrowserClient
	downloads   DownloadWaiter
	logger      logger.AppLogger
	sleep       func(ctx context.Context, d time.Duration) error
	errorURL    *regexp.Regexp
}

// NewPortalControllerはPortalControllerを生成します。
func NewPortalController(args PortalControllerArgs) (*PortalController, error) {
	errorURL, err := regexp.Compile(args.Cfg.Portal.ErrorURLPattern)
	if err != nil {
		return nil, fmt.Errorf("エラーページのURLパターンが不正です: %w", err)
	}
	sleep := args.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &PortalController{
		cfg:         args.Cfg,
		credentials: args.Credentials,
		client:      args.Client,
		downloads:   args.Downloads,
		logger:      args.Logger,
		sleep:       sleep,
		errorURL:    errorURL,
	}, nil
}

func (c *PortalController) timeout() time.Duration {
	return config.Duration(c.cfg.Portal.TimeoutSeconds)
}

func (c *PortalController) fixedPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   config.Duration(c.cfg.Retry.DelaySeconds),
		Backoff:     retry.Fixed,
		Sleep:       c.sleep,
	}
}

// FetchReportは企業を選択して実績レポートをダウンロードし、保存先のパスを返します。
// 未ログインならログインから、ログイン済みならトップ画面に戻ってから始めます。
func (c *PortalController) FetchReport(ctx context.Context, s *model.Session) (string, error) {
	if err := c.enterCompany(ctx, s); err != nil {
		return "", err
	}
	if err := c.DownloadReport(ctx, s); err != nil {
		return "", err
	}
	return s.ReportPath, nil
}

// enterCompanyはトップ画面から企業の画面までを進めます。
func (c *PortalController) enterCompany(ctx context.Context, s *model.Session) error {
	if s.State == model.LoggedOut {
		if err := c.Login(ctx, s); err != nil {
			return err
		}
	} else if err := c.ReturnTop(ctx, s); err != nil {
		return err
	}
	if err := c.SearchCompany(ctx, s); err != nil {
		return err
	}
	return c.SelectCompany(ctx, s)
}

// Loginはログイン画面からトップ画面まで遷移します。
func (c *PortalController) Login(ctx context.Context, s *model.Session) error {
	sel := c.cfg.Portal.Selector
	if err := c.client.Navigate(c.cfg.Portal.LoginURL); err != nil {
		return fmt.Errorf("ログイン画面を開けませんでした: %w", err)
	}
	if err := c.client.Fill(sel.LoginID, c.credentials.LoginID); err != nil {
		return fmt.Errorf("ログインIDを入力できませんでした: %w", err)
	}
	if err := c.client.Fill(sel.Password, c.credentials.Password); err != nil {
		return fmt.Errorf("パスワードを入力できませんでした: %w", err)
	}
	if err := c.client.Click(sel.LoginButton); err != nil {
		return fmt.Errorf("ログインボタンを押せませんでした: %w", err)
	}
	return c.arrive(s, model.TopPage, sel.TopMarker)
}

// ReturnTopはトップ画面に戻ります。戻れない場合はログインし直します。
func (c *PortalController) ReturnTop(ctx context.Context, s *model.Session) error {
	sel := c.cfg.Portal.Selector
	if s.State != model.LoggedOut {
		_ = c.client.ClosePopup()
		err := c.client.Click(sel.TopLink)
		if err == nil {
			err = c.arrive(s, model.TopPage, sel.TopMarker)
		}
		if err == nil || errors.Is(err, ErrPortalErrorPage) {
			return err
		}
		c.logger.Warn("トップ画面に戻れないため再ログインします", "company_id", s.Task.CompanyID, "error", err)
	}
	s.Move(model.LoggedOut, "")
	return c.Login(ctx, s)
}

// SearchCompanyは企業IDで企業を検索します。
func (c *PortalController) SearchCompany(ctx context.Context, s *model.Session) error {
	if s.State < model.TopPage {
		return fmt.Errorf("%sからは企業を検索できません", s.State)
	}
	sel := c.cfg.Portal.Selector
	if err := c.client.Fill(sel.CompanySearchInput, s.Task.CompanyID); err != nil {
		return fmt.Errorf("企業IDを入力できませんでした: %w", err)
	}
	if err := c.client.Click(sel.CompanySearchButton); err != nil {
		return fmt.Errorf("企業検索ボタンを押せませんでした: %w", err)
	}
	if err := c.arrive(s, model.CompanySearched, sel.CompanyResultLink); err != nil {
		return err
	}

	results, err := c.client.ExtractText(sel.CompanyResultLink)
	if err != nil {
		return fmt.Errorf("企業の検索結果を読み取れませんでした: %w", err)
	}
	switch {
	case len(results) == 0:
		return fmt.Errorf("企業ID %s の検索結果がありません", s.Task.CompanyID)
	case len(results) > 1:
		c.logger.Warn("検索結果が複数あるため先頭の企業を選択します", "company_id", s.Task.CompanyID, "results", len(results))
	}
	return nil
}

// SelectCompanyは検索結果から企業を選択します。
// 遷移イベントが発生しない画面があるため、一定時間待ってからURLを確認し、
// 変わっていなければ警告だけ出して続行します。
func (c *PortalController) SelectCompany(ctx context.Context, s *model.Session) error {
	if s.State != model.CompanySearched {
		return fmt.Errorf("%sからは企業を選択できません", s.State)
	}
	sel := c.cfg.Portal.Selector
	before, err := c.client.CurrentURL()
	if err != nil {
		return err
	}
	if err := c.client.Click(sel.CompanyResultLink); err != nil {
		return fmt.Errorf("企業を選択できませんでした: %w", err)
	}
	if err := c.sleep(ctx, config.Duration(c.cfg.Portal.SelectCheckDelaySecs)); err != nil {
		return err
	}
	after, err := c.client.CurrentURL()
	if err != nil {
		return err
	}
	if after.String() == before.String() {
		// URLが変わらなくても企業画面に切り替わっていれば問題ない
		onPage, err := c.client.Exists(sel.CompanyPageMarker)
		if err != nil || !onPage {
			c.logger.Warn("企業選択後もURLが変わっていません", "company_id", s.Task.CompanyID, "url", after.String())
		}
	}
	return c.arrive(s, model.CompanySelected, sel.CompanyPageMarker)
}

// DownloadReportは実績レポートをダウンロードし、保存が完了するまで待ちます。
func (c *PortalController) DownloadReport(ctx context.Context, s *model.Session) error {
	if s.State != model.CompanySelected {
		return fmt.Errorf("%sからはレポートをダウンロードできません", s.State)
	}
	sel := c.cfg.Portal.Selector
	before, err := c.downloads.Snapshot()
	if err != nil {
		return err
	}
	if err := c.client.Click(sel.ReportMenu); err != nil {
		return fmt.Errorf("レポートメニューを開けませんでした: %w", err)
	}
	if err := c.checkErrorURL(); err != nil {
		return err
	}
	if err := c.client.Click(sel.ReportDownload); err != nil {
		return fmt.Errorf("レポートのダウンロードを開始できませんでした: %w", err)
	}

	path, err := c.downloads.Wait(ctx, before)
	if err != nil {
		if r, ok := c.client.(downloadErrorReporter); ok {
			if dlErr := r.DownloadError(); dlErr != nil {
				err = errors.Join(err, dlErr)
			}
		}
		return fmt.Errorf("レポートのダウンロードに失敗しました: %w", err)
	}

	current, err := c.client.CurrentURL()
	if err != nil {
		return err
	}
	s.Move(model.ReportDownloaded, current.String())
	s.ReportPath = path
	c.logger.Info("レポートをダウンロードしました", "company_id", s.Task.CompanyID, "path", path)
	return nil
}

// FetchPreviewは求人番号で求人を検索してプレビューを開き、付帯情報を取得します。
// 求人検索からプレビューを開くまでを最大JobSearchAttempts回試行し、
// 2回目以降はトップ画面に戻って企業の検索からやり直します。
func (c *PortalController) FetchPreview(ctx context.Context, s *model.Session, jobNumber string) (model.PreviewAttributes, error) {
	s.JobNumber = jobNumber

	policy := c.fixedPolicy(c.cfg.Retry.JobSearchAttempts)
	policy.OnRetry = func(attempt int, err error) {
		c.logger.Warn("求人検索をやり直します", "company_id", s.Task.CompanyID, "job_number", jobNumber, "attempt", attempt, "error", err)
	}
	err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		if attempt > 1 || s.State < model.CompanySelected {
			if err := c.enterCompany(ctx, s); err != nil {
				return err
			}
		}
		if err := c.OpenJobSearch(ctx, s); err != nil {
			return err
		}
		if err := c.SearchJob(ctx, s, jobNumber); err != nil {
			return err
		}
		return c.OpenPreview(ctx, s)
	})
	if err != nil {
		return model.PreviewAttributes{}, fmt.Errorf("求人 %s のプレビューを開けませんでした: %w", jobNumber, err)
	}

	attrs := c.ScrapeAttributes(ctx, s)
	if err := c.ClosePreview(ctx, s); err != nil {
		return attrs, err
	}
	return attrs, nil
}

// OpenJobSearchは企業の画面から求人検索画面を開きます。
func (c *PortalController) OpenJobSearch(ctx context.Context, s *model.Session) error {
	if s.State < model.CompanySelected {
		return fmt.Errorf("%sからは求人検索画面を開けません", s.State)
	}
	sel := c.cfg.Portal.Selector
	_ = c.client.ClosePopup()
	if err := c.client.Click(sel.JobSearchMenu); err != nil {
		return fmt.Errorf("求人検索メニューを開けませんでした: %w", err)
	}
	return c.arrive(s, model.JobSearchPage, sel.JobNumberInput)
}

// SearchJobは求人番号で検索します。
func (c *PortalController) SearchJob(ctx context.Context, s *model.Session, jobNumber string) error {
	if s.State != model.JobSearchPage {
		return fmt.Errorf("%sからは求人を検索できません", s.State)
	}
	sel := c.cfg.Portal.Selector
	if err := c.client.Fill(sel.JobNumberInput, jobNumber); err != nil {
		return fmt.Errorf("求人番号を入力できませんでした: %w", err)
	}
	if err := c.client.Click(sel.JobSearchButton); err != nil {
		return fmt.Errorf("求人検索ボタンを押せませんでした: %w", err)
	}
	if err := c.client.WaitVisible(sel.PreviewLink, c.timeout()); err != nil {
		return err
	}
	return c.checkErrorURL()
}

// OpenPreviewは検索結果の先頭のプレビューを別ウィンドウで開きます。
func (c *PortalController) OpenPreview(ctx context.Context, s *model.Session) error {
	if s.State != model.JobSearchPage {
		return fmt.Errorf("%sからはプレビューを開けません", s.State)
	}
	sel := c.cfg.Portal.Selector
	if err := c.client.OpenPopup(sel.PreviewLink); err != nil {
		return err
	}
	return c.arrive(s, model.PreviewOpen, sel.PreviewMarker)
}

// ClosePreviewはプレビューを閉じて元の画面に戻ります。
func (c *PortalController) ClosePreview(ctx context.Context, s *model.Session) error {
	if s.State != model.PreviewOpen {
		return nil
	}
	if err := c.client.ClosePopup(); err != nil {
		return err
	}
	current, err := c.client.CurrentURL()
	if err != nil {
		return err
	}
	s.Move(model.PreviewClosed, current.String())
	return nil
}

// ScrapeAttributesはプレビュー画面から所在地、職種、給与を取得します。
// 項目のまとまりごとに最大AttributeAttempts回試行し、失敗したら画面を再読み込みしてやり直します。
// 取得できなかった項目は空文字のままにします。
func (c *PortalController) ScrapeAttributes(ctx context.Context, s *model.Session) model.PreviewAttributes {
	var attrs model.PreviewAttributes
	ps := c.cfg.Portal.Preview

	c.scrapeGroup(ctx, s, "所在地", func(doc infra.HTMLDocument) error {
		var pref, city string
		if ps.Address != "" {
			if loc, ok := infra.ParseLocation(doc.FirstText(ps.Address)); ok {
				pref, city = loc.Prefecture, loc.City
			}
		}
		if pref == "" {
			pref = service.NormalizeText(doc.FirstText(ps.Prefecture))
		}
		if city == "" {
			city = service.NormalizeText(doc.FirstText(ps.City))
		}
		if pref == "" {
			return ErrAttributeEmpty
		}
		attrs.Prefecture = pref
		attrs.City = city
		attrs.Station = service.NormalizeText(doc.FirstText(ps.Station))
		return nil
	})

	c.scrapeGroup(ctx, s, "職種", func(doc infra.HTMLDocument) error {
		text := service.NormalizeText(doc.FirstText(ps.JobCategory))
		if text == "" {
			return ErrAttributeEmpty
		}
		attrs.JobCategoryRawText = text
		return nil
	})

	c.scrapeGroup(ctx, s, "給与", func(doc infra.HTMLDocument) error {
		amount := service.NormalizeText(doc.FirstText(ps.Salary))
		if amount == "" {
			return ErrAttributeEmpty
		}
		// 給与欄に補足の文言が混ざっている場合は形態と金額の部分だけを使う
		if found, err := doc.ExtractTextByRegex(ps.Salary, constants.SalaryTextPattern); err == nil && len(found) > 0 {
			amount = service.NormalizeText(found[0])
		}
		salaryType := service.NormalizeText(doc.FirstText(ps.SalaryType))
		if salaryType == "" {
			salaryType = string(service.ExtractSalaryForm(amount))
		}
		attrs.SalaryRawAmount = amount
		attrs.SalaryType = salaryType
		return nil
	})

	return attrs
}

func (c *PortalController) scrapeGroup(ctx context.Context, s *model.Session, name string, extract func(doc infra.HTMLDocument) error) {
	policy := c.fixedPolicy(c.cfg.Retry.AttributeAttempts)
	policy.OnRetry = func(attempt int, err error) {
		c.logger.Debug("プレビューを再読み込みします", "group", name, "attempt", attempt, "error", err)
		if err := c.client.Reload(); err != nil {
			c.logger.Warn("プレビューの再読み込みに失敗しました", "group", name, "error", err)
		}
	}
	err := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		html, err := c.client.GetHTML()
		if err != nil {
			return err
		}
		doc, err := infra.NewHTMLDocument(html)
		if err != nil {
			return err
		}
		return extract(doc)
	})
	if err != nil {
		c.logger.Warn("プレビューの項目を取得できなかったため空欄にします", "group", name, "company_id", s.Task.CompanyID, "job_number", s.JobNumber, "error", err)
	}
}

// arriveは画面の目印が表示されるのを待ってから状態を進めます。
func (c *PortalController) arrive(s *model.Session, next model.SessionState, marker string) error {
	if err := c.checkErrorURL(); err != nil {
		return err
	}
	if err := c.client.WaitVisible(marker, c.timeout()); err != nil {
		if urlErr := c.checkErrorURL(); urlErr != nil {
			return urlErr
		}
		return fmt.Errorf("%sへの遷移を確認できませんでした: %w", next, err)
	}
	current, err := c.client.CurrentURL()
	if err != nil {
		return err
	}
	s.Move(next, current.String())
	c.logger.Debug("画面を遷移しました", "state", next.String(), "url", s.CurrentURL)
	return nil
}

// checkErrorURLは現在のURLがエラーページならretry.Permanentで包んだエラーを返します。
func (c *PortalController) checkErrorURL() error {
	current, err := c.client.CurrentURL()
	if err != nil {
		return err
	}
	if c.errorURL.MatchString(current.String()) {
		return retry.Permanent(fmt.Errorf("%s: %w", current.String(), ErrPortalErrorPage))
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
