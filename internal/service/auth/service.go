// Package auth 提供注册、登录、登出与凭证管理的业务逻辑
// 每次登录对应一条持久化会话记录，JWT 里绑定会话令牌，
// 作废会话即作废凭证
package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/dto/respond"
	"nexchat_server/internal/model"
	"nexchat_server/internal/service/cache"
	"nexchat_server/internal/service/chat"
	"nexchat_server/pkg/enum/session_status_enum"
	"nexchat_server/pkg/errorx"
	myjwt "nexchat_server/pkg/util/jwt"
	"nexchat_server/pkg/util/random"
)

// Service 认证服务实现
type Service struct {
	repos      *repository.Repositories
	cacheSvc   *cache.Service
	chatServer *chat.ChatServer
}

// NewAuthService 创建认证服务实例
func NewAuthService(repos *repository.Repositories, cacheSvc *cache.Service, chatServer *chat.ChatServer) *Service {
	return &Service{repos: repos, cacheSvc: cacheSvc, chatServer: chatServer}
}

// Register 用户注册，注册成功即登录
func (s *Service) Register(ctx context.Context, req request.RegisterRequest, userAgent, clientIP string) (*respond.RegisterRespond, error) {
	if _, err := s.repos.User.FindByEmail(req.Email); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "该邮箱已注册")
	} else if !errorx.IsNotFound(err) {
		zap.L().Error("register email lookup failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	user := model.UserInfo{
		Uuid:        "U" + random.GetNowAndLenRandomString(11),
		Nickname:    req.Nickname,
		Email:       req.Email,
		RawPassword: req.Password, // BeforeSave Hook 负责加密
	}
	if err := s.repos.User.Create(&user); err != nil {
		zap.L().Error("create user failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	accessToken, refreshToken, _, err := s.issueSession(ctx, user.Uuid, userAgent, clientIP)
	if err != nil {
		return nil, err
	}

	return &respond.RegisterRespond{
		Uuid:         user.Uuid,
		Nickname:     user.Nickname,
		Email:        user.Email,
		Avatar:       user.Avatar,
		CreatedAt:    user.CreatedAt.Format("2006-01-02 15:04:05"),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Login 密码登录
func (s *Service) Login(ctx context.Context, req request.LoginRequest, userAgent, clientIP string) (*respond.LoginRespond, error) {
	user, err := s.repos.User.FindByEmail(req.Email)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		zap.L().Error("login lookup failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码错误")
	}

	accessToken, refreshToken, _, err := s.issueSession(ctx, user.Uuid, userAgent, clientIP)
	if err != nil {
		return nil, err
	}

	return &respond.LoginRespond{
		Uuid:         user.Uuid,
		Nickname:     user.Nickname,
		Email:        user.Email,
		Avatar:       user.Avatar,
		Signature:    user.Signature,
		Status:       user.Status,
		CreatedAt:    user.CreatedAt.Format("2006-01-02 15:04:05"),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout 登出：作废本次登录的会话，凭证随之失效
// 该会话名下的 WebSocket 连接一并踢掉，不等下次握手
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	if err := s.cacheSvc.InvalidateSession(ctx, sessionToken); err != nil {
		zap.L().Error("logout invalidate failed", zap.Error(err))
		return errorx.ErrServerBusy
	}
	s.chatServer.KickSession(sessionToken)
	return nil
}

// ChangePassword 修改密码
// 成功后除当前会话外，该用户的其他会话全部作废（踢掉其他设备）
func (s *Service) ChangePassword(ctx context.Context, userUuid, sessionToken string, req request.ChangePasswordRequest) error {
	user, err := s.repos.User.FindByUuid(userUuid)
	if err != nil {
		zap.L().Error("change password lookup failed", zap.Error(err))
		return errorx.ErrServerBusy
	}
	if !user.CheckPassword(req.OldPassword) {
		return errorx.New(errorx.CodeInvalidPassword, "原密码错误")
	}

	if err := s.repos.User.UpdatePassword(userUuid, req.NewPassword); err != nil {
		zap.L().Error("update password failed", zap.Error(err))
		return errorx.ErrServerBusy
	}
	if err := s.cacheSvc.InvalidateUserSessions(ctx, userUuid, sessionToken); err != nil {
		zap.L().Error("invalidate other sessions failed", zap.Error(err))
		return errorx.ErrServerBusy
	}
	// 其他设备的连接随会话一起踢掉，当前设备保留
	s.chatServer.KickUser(userUuid, sessionToken)
	return nil
}

// RefreshToken 用 Refresh Token 换新的 Access Token
// 背后的会话必须仍然有效
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*respond.RefreshTokenRespond, error) {
	claims, err := myjwt.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Subject != "refresh_token" {
		return nil, errorx.New(errorx.CodeUnauthorized, "请使用 Refresh Token")
	}

	session, err := s.cacheSvc.GetSession(ctx, claims.SessionID)
	if err != nil || session.UserUuid != claims.UserID {
		return nil, errorx.ErrUnauthorized
	}

	accessToken, err := myjwt.GenerateAccessToken(claims.UserID, claims.SessionID)
	if err != nil {
		zap.L().Error("access token generate failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.RefreshTokenRespond{AccessToken: accessToken}, nil
}

// issueSession 创建持久化会话并签发一对令牌
func (s *Service) issueSession(ctx context.Context, userUuid, userAgent, clientIP string) (accessToken, refreshToken string, session *model.Session, err error) {
	session = &model.Session{
		Token:        uuid.NewString(),
		UserUuid:     userUuid,
		UserAgent:    userAgent,
		ClientIP:     clientIP,
		LastActiveAt: sql.NullTime{Time: time.Now(), Valid: true},
		Status:       session_status_enum.VALID,
	}
	if err = s.repos.Session.Create(session); err != nil {
		zap.L().Error("create session failed", zap.Error(err))
		return "", "", nil, errorx.ErrServerBusy
	}
	// 先落库再写缓存
	s.cacheSvc.PutSession(ctx, session)

	accessToken, err = myjwt.GenerateAccessToken(userUuid, session.Token)
	if err != nil {
		zap.L().Error("access token generate failed", zap.Error(err))
		return "", "", nil, errorx.ErrServerBusy
	}
	refreshToken, _, err = myjwt.GenerateRefreshToken(userUuid, session.Token)
	if err != nil {
		zap.L().Error("refresh token generate failed", zap.Error(err))
		return "", "", nil, errorx.ErrServerBusy
	}
	return accessToken, refreshToken, session, nil
}
