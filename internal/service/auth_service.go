package service

import (
	"context"
	"strings"
	"unicode"

	"caserma-alloggi/internal/config"
	"caserma-alloggi/internal/domain"
	"caserma-alloggi/internal/repository"
	"caserma-alloggi/internal/store"

	"go.uber.org/zap"
)

// AuthService resolves the request identity and the admin flag. The
// upstream proxy authenticates and forwards the username; here we only
// normalize it and check the allow-list.
type AuthService interface {
	// ResolveIdentity turns the forwarded header value into the request
	// identity. In development mode the header is ignored and the
	// configured DevUsername is used. An empty result in production
	// means the request is unauthenticated.
	ResolveIdentity(headerValue string) domain.Identity
	// IsAdmin checks the allow-list for every spelling of the username's
	// matricola. Results are cached in the KV store.
	IsAdmin(ctx context.Context, username string) (bool, error)
}

type authService struct {
	cfg       config.AuthConfig
	adminRepo repository.AdminRepository
	cache     store.KV
	logger    *zap.Logger
}

func NewAuthService(cfg config.AuthConfig, adminRepo repository.AdminRepository, cache store.KV, logger *zap.Logger) AuthService {
	return &authService{
		cfg:       cfg,
		adminRepo: adminRepo,
		cache:     cache,
		logger:    logger,
	}
}

func (s *authService) ResolveIdentity(headerValue string) domain.Identity {
	if s.cfg.Mode == config.ModeDevelopment {
		return domain.Identity{
			Username:      s.cfg.DevUsername,
			Authenticated: true,
			Domain:        s.cfg.Domain,
		}
	}

	username := strings.TrimSpace(headerValue)
	// The proxy may forward DOMAIN\user.
	if i := strings.LastIndex(username, `\`); i >= 0 {
		username = username[i+1:]
	}
	if username == "" {
		return domain.Identity{}
	}
	return domain.Identity{
		Username:      username,
		Authenticated: true,
		Domain:        s.cfg.Domain,
	}
}

// matricolaVarianti returns every spelling under which a matricola may
// appear in tbl_admin. Service numbers carry one letter that historically
// was recorded at either end (J972537 vs 972537J), so both rotations are
// checked alongside the original.
func matricolaVarianti(matricola string) []string {
	m := strings.ToUpper(strings.TrimSpace(matricola))
	if m == "" {
		return nil
	}
	varianti := []string{m}
	runes := []rune(m)
	first, last := runes[0], runes[len(runes)-1]
	if len(runes) > 1 && unicode.IsLetter(first) && !unicode.IsLetter(last) {
		varianti = append(varianti, string(runes[1:])+string(first))
	}
	if len(runes) > 1 && unicode.IsLetter(last) && !unicode.IsLetter(first) {
		varianti = append(varianti, string(last)+string(runes[:len(runes)-1]))
	}
	return varianti
}

func (s *authService) IsAdmin(ctx context.Context, username string) (bool, error) {
	varianti := matricolaVarianti(username)
	if len(varianti) == 0 {
		return false, nil
	}

	cacheKey := "isadmin:" + varianti[0]
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		return cached == "1", nil
	} else if err != store.ErrMiss {
		s.logger.Warn("admin cache read failed", zap.Error(err))
	}

	admin, err := s.adminRepo.IsAdmin(ctx, varianti...)
	if err != nil {
		s.logger.Error("admin lookup failed", zap.String("username", username), zap.Error(err))
		return false, err
	}

	val := "0"
	if admin {
		val = "1"
	}
	if err := s.cache.Set(ctx, cacheKey, val, s.cfg.AdminTTL); err != nil {
		s.logger.Warn("admin cache write failed", zap.Error(err))
	}
	return admin, nil
}
