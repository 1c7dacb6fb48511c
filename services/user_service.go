package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/mailer"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = 15 * time.Minute

	forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."
)

// GuestCartMerger folds a guest cart into a user's cart after sign-in.
type GuestCartMerger interface {
	MergeGuestCart(ctx context.Context, userID primitive.ObjectID, guestID string) (*models.Cart, error)
}

type Mailer interface {
	Send(ctx context.Context, template, to string, msg mailer.Message) error
	SendAsync(template, to string, msg mailer.Message)
}

type UserService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	tokens   *TokenService
	google   GoogleVerifier
	carts    GuestCartMerger
	mail     Mailer
	resetURL string
	logger   *zap.Logger
	now      func() time.Time
}

type UserServiceDeps struct {
	Users        repository.UserRepository
	Products     repository.ProductRepository
	Tokens       *TokenService
	Google       GoogleVerifier
	Carts        GuestCartMerger
	Mail         Mailer
	ResetURLBase string
	Logger       *zap.Logger
}

func NewUserService(d UserServiceDeps) *UserService {
	return &UserService{
		users:    d.Users,
		products: d.Products,
		tokens:   d.Tokens,
		google:   d.Google,
		carts:    d.Carts,
		mail:     d.Mail,
		resetURL: strings.TrimSuffix(d.ResetURLBase, "/"),
		logger:   d.Logger,
		now:      time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Validation("User Already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Server Error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}

	now := s.now().UTC()
	user := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Password:  string(hash),
		Role:      models.RoleCustomer,
		Provider:  models.ProviderLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Validation("User Already exists")
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return s.authResponse(user)
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validation("Invalid Credentials")
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, apperrors.Validation("Invalid Credentials")
	}

	s.mergeGuestCart(ctx, user.ID, req.GuestID)
	return s.authResponse(user)
}

// GoogleAuth signs in with a Google ID token, creating the account on first
// use.
func (s *UserService) GoogleAuth(ctx context.Context, req models.GoogleAuthRequest) (*models.AuthResponse, error) {
	profile, err := s.google.Verify(ctx, req.TokenID)
	if err != nil {
		s.logger.Warn("google sign-in rejected", zap.Error(err))
		return nil, apperrors.Unauthorized("Google authentication failed")
	}

	user, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			user.GoogleID = profile.Subject
			if user.Avatar == "" {
				user.Avatar = profile.Picture
			}
			if err := s.users.Save(ctx, user); err != nil {
				return nil, apperrors.Internal("Server Error", err)
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		now := s.now().UTC()
		name := profile.Name
		if name == "" {
			name = strings.Split(profile.Email, "@")[0]
		}
		user = &models.User{
			Name:      name,
			Email:     profile.Email,
			Role:      models.RoleCustomer,
			Provider:  models.ProviderGoogle,
			GoogleID:  profile.Subject,
			Avatar:    profile.Picture,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, apperrors.Internal("Server Error", err)
		}
		s.logger.Info("user registered via google", zap.String("user_id", user.ID.Hex()))
	default:
		return nil, apperrors.Internal("Server Error", err)
	}

	s.mergeGuestCart(ctx, user.ID, req.GuestID)
	return s.authResponse(user)
}

func (s *UserService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	return user, nil
}

// ForgotPassword always answers with the same neutral message so callers
// cannot probe which emails are registered.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return forgotPasswordMessage, nil
		}
		return "", apperrors.Internal("Server Error", err)
	}

	token, hash, err := newResetToken()
	if err != nil {
		return "", apperrors.Internal("Server Error", err)
	}
	expires := s.now().Add(resetTokenTTL).UTC()
	user.ResetPasswordToken = hash
	user.ResetPasswordExpires = &expires
	if err := s.users.Save(ctx, user); err != nil {
		return "", apperrors.Internal("Server Error", err)
	}

	msg, err := mailer.PasswordReset(user.Name, s.resetURL+"/"+token)
	if err != nil {
		return "", apperrors.Internal("Server Error", err)
	}
	if err := s.mail.Send(ctx, models.TemplatePasswordReset, user.Email, msg); err != nil {
		user.ResetPasswordToken = ""
		user.ResetPasswordExpires = nil
		_ = s.users.Save(ctx, user)
		return "", apperrors.Internal("Email could not be sent", err)
	}

	return forgotPasswordMessage, nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.users.FindByResetToken(ctx, hashResetToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Validation("Invalid or expired reset token")
		}
		return apperrors.Internal("Server Error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Server Error", err)
	}
	user.Password = string(hash)
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	if err := s.users.Save(ctx, user); err != nil {
		return apperrors.Internal("Server Error", err)
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID.Hex()))
	return nil
}

func (s *UserService) Wishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindByIDs(ctx, user.Wishlist)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	return products, nil
}

func (s *UserService) AddToWishlist(ctx context.Context, userID primitive.ObjectID, productHex string) ([]models.Product, error) {
	productID, err := parseObjectID(productHex, "Product not found")
	if err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}
	if err := s.users.AddToWishlist(ctx, userID, productID); err != nil {
		return nil, s.wishlistErr(err)
	}
	return s.Wishlist(ctx, userID)
}

func (s *UserService) RemoveFromWishlist(ctx context.Context, userID primitive.ObjectID, productHex string) ([]models.Product, error) {
	productID, err := parseObjectID(productHex, "Product not found")
	if err != nil {
		return nil, err
	}
	if err := s.users.RemoveFromWishlist(ctx, userID, productID); err != nil {
		return nil, s.wishlistErr(err)
	}
	return s.Wishlist(ctx, userID)
}

func (s *UserService) wishlistErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("User not found")
	}
	return apperrors.Internal("Server Error", err)
}

func (s *UserService) mergeGuestCart(ctx context.Context, userID primitive.ObjectID, guestID string) {
	if guestID == "" || s.carts == nil {
		return
	}
	if _, err := s.carts.MergeGuestCart(ctx, userID, guestID); err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		s.logger.Warn("guest cart merge on sign-in failed",
			zap.String("user_id", userID.Hex()),
			zap.String("guest_id", guestID),
			zap.Error(err),
		)
	}
}

func (s *UserService) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	return &models.AuthResponse{User: user.Public(), Token: token}, nil
}

func newResetToken() (token, hash string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
