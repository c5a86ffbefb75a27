package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/pkg/jwt"
	"github.com/qs3c/namebase_server/internal/pkg/oauth"
	"github.com/qs3c/namebase_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidVerifyCode  = errors.New("verification code is invalid or expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrOAuthNotConfigured = errors.New("github login is not configured")
)

const verificationTTL = 24 * time.Hour

// GithubProvider GitHub OAuth 客户端
type GithubProvider interface {
	Configured() bool
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	GetUser(ctx context.Context, token *oauth2.Token) (*oauth.GithubUser, error)
}

// OAuthStates 保存 OAuth state
type OAuthStates interface {
	GenerateState(ctx context.Context, data oauth.StateData) (string, error)
	ValidateState(ctx context.Context, state string) (*oauth.StateData, error)
}

type AuthService struct {
	profileRepo *repository.ProfileRepository
	nameRepo    *repository.NameRepository
	cfg         *config.Config
	mailer      Mailer
	github      GithubProvider
	states      OAuthStates
	log         zerolog.Logger
	now         clock
}

func NewAuthService(
	profileRepo *repository.ProfileRepository,
	nameRepo *repository.NameRepository,
	cfg *config.Config,
	mailer Mailer,
	github GithubProvider,
	states OAuthStates,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
		nameRepo:    nameRepo,
		cfg:         cfg,
		mailer:      mailer,
		github:      github,
		states:      states,
		log:         log.With().Str("component", "AuthService").Logger(),
		now:         time.Now,
	}
}

// Register 邮箱注册，可同时认领匿名阶段生成的名称
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.profileRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifyCode, err := generateRandomCode(32)
	if err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	expiresAt := s.now().Add(verificationTTL)

	profile := &model.Profile{
		Email:                 &email,
		Name:                  strings.TrimSpace(req.Name),
		PasswordHash:          &passwordStr,
		VerificationCode:      &verifyCode,
		VerificationExpiresAt: &expiresAt,
		PendingNameIDs:        strings.Join(req.NameIDs, ","),
	}
	if profile.Name == "" {
		profile.Name = strings.SplitN(email, "@", 2)[0]
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	if s.mailer != nil && s.mailer.Configured() {
		link := s.frontendURL("/verify-email") + "?code=" + url.QueryEscape(verifyCode)
		if err := s.mailer.SendConfirmation(email, link); err != nil {
			s.log.Error().Err(err).Str("account", profile.ID).Msg("send confirmation email failed")
		}
		return &dto.RegisterResponse{UserID: profile.ID}, nil
	}

	// 开发环境未配置邮件时自动验证邮箱
	if s.cfg.Server.Mode == "debug" {
		if _, err := s.markVerified(ctx, profile); err != nil {
			return nil, err
		}
		return &dto.RegisterResponse{UserID: profile.ID, EmailVerified: true}, nil
	}

	s.log.Warn().Str("account", profile.ID).Msg("email not configured, account left unverified")
	return &dto.RegisterResponse{UserID: profile.ID}, nil
}

// VerifyEmail 验证邮箱，认领注册时携带的名称并返回登录态
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*dto.LoginResponse, error) {
	profile, err := s.profileRepo.GetByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerifyCode
		}
		return nil, err
	}

	if profile.VerificationExpiresAt == nil || s.now().After(*profile.VerificationExpiresAt) {
		return nil, ErrInvalidVerifyCode
	}

	claimed, err := s.markVerified(ctx, profile)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil && s.mailer.Configured() && profile.Email != nil {
		if err := s.mailer.SendWelcome(*profile.Email, profile.Name); err != nil {
			s.log.Warn().Err(err).Str("account", profile.ID).Msg("send welcome email failed")
		}
	}

	return s.loginResponse(profile, claimed)
}

// Login 邮箱密码登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if profile.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 生产环境强制要求验证邮箱，开发环境跳过
	if !profile.EmailVerified && s.cfg.Server.Mode != "debug" {
		return nil, ErrEmailNotVerified
	}

	return s.loginResponse(profile, nil)
}

// GithubAuthURL 生成 state 并返回 GitHub 授权地址
func (s *AuthService) GithubAuthURL(ctx context.Context, redirectURI string, nameIDs []string) (string, error) {
	if s.github == nil || !s.github.Configured() {
		return "", ErrOAuthNotConfigured
	}

	state, err := s.states.GenerateState(ctx, oauth.StateData{RedirectURI: redirectURI, NameIDs: nameIDs})
	if err != nil {
		return "", err
	}
	return s.github.GetAuthURL(state), nil
}

// GithubCallback 处理 GitHub OAuth 回调，返回登录态与登录后跳转地址
func (s *AuthService) GithubCallback(ctx context.Context, code, state string) (*dto.LoginResponse, string, error) {
	if s.github == nil || !s.github.Configured() {
		return nil, "", ErrOAuthNotConfigured
	}

	data, err := s.states.ValidateState(ctx, state)
	if err != nil {
		return nil, "", err
	}

	token, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange code: %w", err)
	}

	githubUser, err := s.github.GetUser(ctx, token)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get github user: %w", err)
	}

	profile, err := s.findOrCreateGithubProfile(ctx, githubUser)
	if err != nil {
		return nil, "", err
	}

	claimed, err := s.nameRepo.Claim(ctx, data.NameIDs, profile.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("account", profile.ID).Msg("claim names failed")
		claimed = nil
	}

	resp, err := s.loginResponse(profile, claimed)
	if err != nil {
		return nil, "", err
	}
	return resp, data.RedirectURI, nil
}

func (s *AuthService) findOrCreateGithubProfile(ctx context.Context, user *oauth.GithubUser) (*model.Profile, error) {
	githubID := user.StringID()

	profile, err := s.profileRepo.GetByGithubID(ctx, githubID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 已用同一邮箱注册的账号直接关联 GitHub
	if user.Email != "" {
		email := normalizeEmail(user.Email)
		profile, err = s.profileRepo.GetByEmail(ctx, email)
		if err == nil {
			if !profile.EmailVerified {
				// 未验证的注册无法证明邮箱归属，作废其密码与待认领名称
				profile.PasswordHash = nil
				profile.VerificationCode = nil
				profile.VerificationExpiresAt = nil
				profile.PendingNameIDs = ""
				s.log.Warn().Str("account", profile.ID).Msg("unverified signup taken over by github sign-in")
			}
			profile.GithubID = &githubID
			profile.EmailVerified = true
			if err := s.profileRepo.Update(ctx, profile); err != nil {
				return nil, err
			}
			return profile, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	profile = &model.Profile{
		Name:          user.DisplayName(),
		GithubID:      &githubID,
		EmailVerified: true, // OAuth 用户默认已验证
	}
	if user.Email != "" {
		email := normalizeEmail(user.Email)
		profile.Email = &email
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	s.log.Info().Str("account", profile.ID).Str("github_id", githubID).Msg("profile created from github")
	return profile, nil
}

// markVerified 标记邮箱已验证并认领待认领的名称
func (s *AuthService) markVerified(ctx context.Context, profile *model.Profile) ([]string, error) {
	pending := splitIDs(profile.PendingNameIDs)

	profile.EmailVerified = true
	profile.VerificationCode = nil
	profile.VerificationExpiresAt = nil
	profile.PendingNameIDs = ""
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	claimed, err := s.nameRepo.Claim(ctx, pending, profile.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("account", profile.ID).Msg("claim names failed")
		return nil, nil
	}
	return claimed, nil
}

func (s *AuthService) loginResponse(profile *model.Profile, claimed []string) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(profile.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:          token,
		User:           profileInfo(profile),
		ClaimedNameIDs: claimed,
	}, nil
}

func (s *AuthService) frontendURL(path string) string {
	return strings.TrimRight(s.cfg.App.FrontendURL, "/") + path
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func splitIDs(joined string) []string {
	var ids []string
	for _, id := range strings.Split(joined, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
