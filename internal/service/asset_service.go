package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/pkg/provider"
	"github.com/qs3c/namebase_server/internal/pkg/viewstate"
	"github.com/qs3c/namebase_server/internal/repository"
)

var (
	ErrSignupRequired = errors.New("an account is required for this action")
	ErrNameNotFound   = errors.New("name not found")
	ErrInvalidAsset   = errors.New("unknown asset kind")
)

const (
	noDomainResults = "No available domain results for this name"
	noNpmResults    = "No available npm package results for this name"

	domainPurchaseURL = "https://www.godaddy.com/domainsearch/find?checkAvail=1&tmskey=&domainToCheck="
	npmPackageURL     = "https://www.npmjs.com/package/"
)

var (
	nonWordPattern   = regexp.MustCompile(`[^\w]`)
	numberingPattern = regexp.MustCompile(`^\d+\.\s*`)
)

// AssetProviders 资源生成依赖的外部服务
type AssetProviders struct {
	Domains   DomainChecker
	Packages  PackageChecker
	Text      TextGenerator
	Logos     LogoGenerator
	OnePagers OnePagerRenderer
	LogoStore LogoStore // 可为空，为空时直接缓存生成服务返回的地址
}

type AssetService struct {
	nameRepo    *repository.NameRepository
	assetRepo   *repository.AssetRepository
	profileRepo *repository.ProfileRepository
	views       ViewStates
	providers   AssetProviders
	log         zerolog.Logger
}

func NewAssetService(
	nameRepo *repository.NameRepository,
	assetRepo *repository.AssetRepository,
	profileRepo *repository.ProfileRepository,
	views ViewStates,
	providers AssetProviders,
	log zerolog.Logger,
) *AssetService {
	return &AssetService{
		nameRepo:    nameRepo,
		assetRepo:   assetRepo,
		profileRepo: profileRepo,
		views:       views,
		providers:   providers,
		log:         log.With().Str("component", "AssetService").Logger(),
	}
}

// Toggle 切换某个名称的资源面板：已展开则收起，未展开则读缓存或调用外部服务后展开
func (s *AssetService) Toggle(ctx context.Context, caller Caller, kind model.AssetKind, nameID string) (*dto.AssetView, error) {
	if !kind.Valid() {
		return nil, ErrInvalidAsset
	}
	if !caller.Authenticated() {
		return nil, s.signupNotice(ctx, caller)
	}

	name, err := s.nameRepo.GetByID(ctx, nameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNameNotFound
		}
		return nil, err
	}

	identity := caller.Identity()
	state, err := s.views.Get(ctx, identity, nameID)
	if err != nil {
		s.log.Warn().Err(err).Str("identity", identity).Msg("view state read failed, treating as hidden")
		state = viewstate.State{}
	}

	view := &dto.AssetView{Kind: string(kind), NameID: nameID}

	if state.Visible(kind) {
		s.saveState(ctx, identity, nameID, kind, false)
		return view, nil
	}

	switch kind {
	case model.AssetDomains:
		err = s.loadDomains(ctx, caller, name, view)
	case model.AssetNpm:
		err = s.loadPackages(ctx, caller, name, view)
	case model.AssetLogo:
		err = s.loadLogo(ctx, caller, name, view)
	case model.AssetOnePager:
		err = s.loadOnePager(ctx, caller, name, view)
	}
	if err != nil {
		return nil, err
	}

	view.Visible = true
	s.saveState(ctx, identity, nameID, kind, true)
	return view, nil
}

func (s *AssetService) saveState(ctx context.Context, identity, nameID string, kind model.AssetKind, visible bool) {
	if err := s.views.SetVisible(ctx, identity, nameID, kind, visible); err != nil {
		s.log.Warn().Err(err).Str("identity", identity).Str("name_id", nameID).Msg("view state write failed")
	}
}

func (s *AssetService) signupNotice(ctx context.Context, caller Caller) *NoticeError {
	link := "/signup"
	if caller.SessionID != "" {
		ids, err := s.nameRepo.ListIDsBySession(ctx, caller.SessionID)
		if err != nil {
			s.log.Warn().Err(err).Str("session", caller.SessionID).Msg("list session names failed")
		} else if len(ids) > 0 {
			link += "?ids=" + url.QueryEscape(strings.Join(ids, ","))
		}
	}

	return &NoticeError{
		Title:       "Please create an account",
		Description: "Sign up to look up domains, npm packages, logos and one-pagers for your names.",
		Action:      &dto.Action{Label: "Sign up", URL: link},
		Err:         ErrSignupRequired,
	}
}

func (s *AssetService) loadDomains(ctx context.Context, caller Caller, name *model.Name, view *dto.AssetView) error {
	// 同名（忽略大小写）的名称共享域名缓存
	ids, err := s.nameRepo.ListIDsByText(ctx, name.Name)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ids = []string{name.ID}
	}

	cached, err := s.assetRepo.ListDomains(ctx, ids)
	if err != nil {
		return err
	}
	if len(cached) > 0 {
		view.Cached = true
		view.Domains = domainResults(cached)
		return nil
	}

	query := DomainQuery(name.Name)
	if query == "" {
		view.Domains = []*dto.DomainResult{}
		view.Notice = &dto.Notice{Description: noDomainResults}
		return nil
	}

	available, err := s.providers.Domains.Check(ctx, query)
	if err != nil {
		return providerFailure(ctx, err)
	}

	rows := make([]*model.Domain, 0, len(available))
	for _, d := range available {
		if !d.Available || d.Domain == "" {
			continue
		}
		rows = append(rows, &model.Domain{
			DomainName:   d.Domain,
			PurchaseLink: domainPurchaseURL + url.QueryEscape(d.Domain),
			NameID:       name.ID,
			CreatedBy:    &caller.AccountID,
		})
	}
	if err := s.assetRepo.CreateDomains(ctx, rows); err != nil {
		return err
	}

	view.Domains = domainResults(rows)
	if len(rows) == 0 {
		view.Notice = &dto.Notice{Description: noDomainResults}
	}
	return nil
}

func (s *AssetService) loadPackages(ctx context.Context, caller Caller, name *model.Name, view *dto.AssetView) error {
	cached, err := s.assetRepo.ListNpmNames(ctx, name.ID)
	if err != nil {
		return err
	}
	if len(cached) > 0 {
		view.Cached = true
		view.Packages = packageResults(cached)
		return nil
	}

	suggestions, err := s.providers.Text.SuggestPackageNames(ctx, name.Name)
	if err != nil {
		return providerFailure(ctx, err)
	}

	var rows []*model.NpmName
	for _, candidate := range PackageCandidates(name.Name, suggestions) {
		pkg := strings.ToLower(candidate)
		ok, err := s.providers.Packages.Available(ctx, pkg)
		if err != nil {
			return providerFailure(ctx, err)
		}
		if !ok {
			continue
		}
		rows = append(rows, &model.NpmName{
			NpmName:      "npm i " + pkg,
			PurchaseLink: npmPackageURL + pkg,
			NameID:       name.ID,
			CreatedBy:    &caller.AccountID,
		})
	}
	if err := s.assetRepo.CreateNpmNames(ctx, rows); err != nil {
		return err
	}

	view.Packages = packageResults(rows)
	if len(rows) == 0 {
		view.Notice = &dto.Notice{Description: noNpmResults}
	}
	return nil
}

func (s *AssetService) loadLogo(ctx context.Context, caller Caller, name *model.Name, view *dto.AssetView) error {
	cached, err := s.assetRepo.LatestLogo(ctx, name.ID)
	if err == nil {
		view.Cached = true
		view.LogoURL = cached.LogoURL
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	generated, err := s.providers.Logos.GenerateLogo(ctx, name.Name)
	if err != nil {
		return providerFailure(ctx, err)
	}

	logoURL := generated
	if s.providers.LogoStore != nil {
		persisted, err := s.providers.LogoStore.PersistLogo(ctx, name.ID, generated)
		if err != nil {
			s.log.Warn().Err(err).Str("name_id", name.ID).Msg("persist logo failed, caching provider url")
		} else {
			logoURL = persisted
		}
	}

	logo := &model.Logo{LogoURL: logoURL, NameID: name.ID, CreatedBy: &caller.AccountID}
	if err := s.assetRepo.CreateLogo(ctx, logo); err != nil {
		return err
	}

	view.LogoURL = logoURL
	return nil
}

func (s *AssetService) loadOnePager(ctx context.Context, caller Caller, name *model.Name, view *dto.AssetView) error {
	cached, err := s.assetRepo.LatestOnePager(ctx, name.ID)
	if err == nil {
		view.Cached = true
		view.OnePagerURL = cached.PdfURL
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	profile, err := s.profileRepo.GetByID(ctx, caller.AccountID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	var logoURL *string
	if logo, err := s.assetRepo.LatestLogo(ctx, name.ID); err == nil {
		logoURL = &logo.LogoURL
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	content, err := s.providers.Text.OnePagerContent(ctx, name.Name, name.Description)
	if err != nil {
		return providerFailure(ctx, err)
	}
	if strings.TrimSpace(content) == "" {
		return providerFailure(ctx, provider.ErrEmptyCompletion)
	}

	author := provider.RenderAuthor{ID: profile.ID, Name: profile.Name}
	if profile.Email != nil {
		author.Email = *profile.Email
	}

	link, err := s.providers.OnePagers.Render(ctx, provider.RenderRequest{
		Content: content,
		Name:    provider.RenderName{ID: name.ID, Name: name.Name, Description: name.Description},
		User:    author,
		LogoURL: logoURL,
	})
	if err != nil {
		return providerFailure(ctx, err)
	}

	onePager := &model.OnePager{PdfURL: link, NameID: name.ID, CreatedBy: &caller.AccountID}
	if err := s.assetRepo.CreateOnePager(ctx, onePager); err != nil {
		return err
	}

	view.OnePagerURL = link
	return nil
}

// DomainQuery 域名查询片段：名称首个单词去掉非单词字符
func DomainQuery(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return nonWordPattern.ReplaceAllString(fields[0], "")
}

// PackageCandidates 原名称在前，其后为去掉编号且与原名称不同的建议
func PackageCandidates(name, suggestions string) []string {
	candidates := []string{name}
	seen := map[string]bool{strings.ToLower(name): true}

	for _, line := range strings.Split(suggestions, "\n") {
		line = strings.TrimSpace(numberingPattern.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, line)
	}
	return candidates
}

// providerFailure 请求被取消时原样返回取消原因，不算作外部服务失败
func providerFailure(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrProviderFailed, err)
}

func domainResults(rows []*model.Domain) []*dto.DomainResult {
	out := make([]*dto.DomainResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, &dto.DomainResult{Domain: r.DomainName, PurchaseLink: r.PurchaseLink})
	}
	return out
}

func packageResults(rows []*model.NpmName) []*dto.PackageResult {
	out := make([]*dto.PackageResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, &dto.PackageResult{NpmName: r.NpmName, PurchaseLink: r.PurchaseLink})
	}
	return out
}
