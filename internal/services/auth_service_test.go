package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/models"
	"vidtube/internal/repositories"
	"vidtube/internal/services"
	"vidtube/pkg/blobstore"
)

var testTokens = services.TokenConfig{
	AccessSecret:  "test_access_secret",
	AccessExpiry:  time.Minute,
	RefreshSecret: "test_refresh_secret",
	RefreshExpiry: time.Hour,
}

func avatarFile() *blobstore.File {
	return &blobstore.File{Name: "avatar.png", ContentType: "image/png", Reader: strings.NewReader("png")}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	blobs := blobstore.NewMemoryStore()
	events := &recordingPublisher{}
	authService := services.NewAuthService(mockRepo, blobs, events, testTokens)

	mockRepo.On("FindByUsernameOrEmail", ctx, "johndoe", "john@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.Register(ctx, services.RegisterInput{
		FullName: "John Doe",
		Email:    "John@Example.com",
		Username: "  JohnDoe ",
		Password: "secret123",
		Avatar:   avatarFile(),
	})

	require.NoError(t, err)
	assert.Equal(t, "johndoe", user.Username)
	assert.Equal(t, "john@example.com", user.Email)
	assert.True(t, models.IsValidID(user.ID))
	assert.True(t, blobs.Has(user.Avatar.PublicID))
	assert.True(t, user.CoverImage.IsZero())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
	assert.Equal(t, []string{services.EventUserRegistered}, events.Keys())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_Validation(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	blobs := blobstore.NewMemoryStore()
	authService := services.NewAuthService(mockRepo, blobs, nil, testTokens)

	_, err := authService.Register(ctx, services.RegisterInput{FullName: " ", Email: "a@b.c", Username: "a", Password: "p", Avatar: avatarFile()})
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))

	mockRepo.On("FindByUsernameOrEmail", ctx, "taken", "new@example.com").Return(&models.User{ID: models.NewID()}, nil).Once()
	_, err = authService.Register(ctx, services.RegisterInput{FullName: "A", Email: "new@example.com", Username: "taken", Password: "p", Avatar: avatarFile()})
	assert.Equal(t, models.KindConflict, models.KindOf(err))

	mockRepo.On("FindByUsernameOrEmail", ctx, "noavatar", "x@example.com").Return(nil, repositories.ErrNotFound).Once()
	_, err = authService.Register(ctx, services.RegisterInput{FullName: "A", Email: "x@example.com", Username: "noavatar", Password: "p"})
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))

	assert.Equal(t, 0, blobs.Len())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_ReleasesBlobsOnFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	blobs := blobstore.NewMemoryStore()
	authService := services.NewAuthService(mockRepo, blobs, nil, testTokens)

	mockRepo.On("FindByUsernameOrEmail", ctx, "racer", "racer@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicate).Once()

	_, err := authService.Register(ctx, services.RegisterInput{
		FullName:   "Racer",
		Email:      "racer@example.com",
		Username:   "racer",
		Password:   "p",
		Avatar:     avatarFile(),
		CoverImage: &blobstore.File{Name: "cover.jpg", Reader: strings.NewReader("jpg")},
	})
	assert.Equal(t, models.KindConflict, models.KindOf(err))
	assert.Equal(t, 0, blobs.Len())

	failing := &flakyStore{MemoryStore: blobstore.NewMemoryStore(), failAt: 2}
	authService = services.NewAuthService(mockRepo, failing, nil, testTokens)
	mockRepo.On("FindByUsernameOrEmail", ctx, "cover", "cover@example.com").Return(nil, repositories.ErrNotFound).Once()
	_, err = authService.Register(ctx, services.RegisterInput{
		FullName:   "Cover",
		Email:      "cover@example.com",
		Username:   "cover",
		Password:   "p",
		Avatar:     avatarFile(),
		CoverImage: &blobstore.File{Name: "cover.jpg", Reader: strings.NewReader("jpg")},
	})
	assert.Equal(t, models.KindInternal, models.KindOf(err))
	assert.Equal(t, 0, failing.Len())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, blobstore.NewMemoryStore(), nil, testTokens)

	user := &models.User{ID: models.NewID(), Username: "testuser", Email: "test@example.com", FullName: "Test", Password: hashed(t, "password123")}

	t.Run("missing identifier", func(t *testing.T) {
		_, _, err := authService.Login(ctx, services.LoginInput{Password: "x"})
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		mockRepo.On("FindByUsernameOrEmail", ctx, "ghost", "").Return(nil, repositories.ErrNotFound).Once()
		_, _, err := authService.Login(ctx, services.LoginInput{Username: "ghost", Password: "x"})
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo.On("FindByUsernameOrEmail", ctx, "testuser", "").Return(user, nil).Once()
		_, _, err := authService.Login(ctx, services.LoginInput{Username: "testuser", Password: "wrong"})
		assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))
	})

	t.Run("success by email", func(t *testing.T) {
		mockRepo.On("FindByUsernameOrEmail", ctx, "", "test@example.com").Return(user, nil).Once()
		mockRepo.On("SetRefreshToken", ctx, user.ID, mock.AnythingOfType("string")).Return(nil).Once()

		got, tokens, err := authService.Login(ctx, services.LoginInput{Email: "TEST@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, tokens.RefreshToken, got.RefreshToken)

		claims, err := authService.VerifyAccess(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "testuser", claims.Username)
		assert.Equal(t, "Test", claims.FullName)
	})

	mockRepo.AssertExpectations(t)
}

func TestAuthService_VerifyAccess(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), blobstore.NewMemoryStore(), nil, testTokens)

	_, err := authService.VerifyAccess("")
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))

	_, err = authService.VerifyAccess("not.a.token")
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))

	// Signed with the refresh secret: a refresh token is not an access token.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"_id": models.NewID(), "exp": time.Now().Add(time.Minute).Unix()})
	signed, err := token.SignedString([]byte(testTokens.RefreshSecret))
	require.NoError(t, err)
	_, err = authService.VerifyAccess(signed)
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"_id": models.NewID(), "exp": time.Now().Add(-time.Minute).Unix()})
	signed, err = expired.SignedString([]byte(testTokens.AccessSecret))
	require.NoError(t, err)
	_, err = authService.VerifyAccess(signed)
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))
}

func TestAuthService_RotateRefresh(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, blobstore.NewMemoryStore(), nil, testTokens)

	user := &models.User{ID: models.NewID(), Username: "rot"}
	mockRepo.On("SetRefreshToken", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)
	mockRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	first, err := authService.IssueTokens(ctx, user)
	require.NoError(t, err)

	_, second, err := authService.RotateRefresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, second.RefreshToken, user.RefreshToken)

	// The first token was consumed by the rotation.
	_, _, err = authService.RotateRefresh(ctx, first.RefreshToken)
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))

	_, _, err = authService.RotateRefresh(ctx, "")
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))

	_, _, err = authService.RotateRefresh(ctx, second.AccessToken)
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))
}

func TestAuthService_RotateRefresh_UnknownUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, blobstore.NewMemoryStore(), nil, testTokens)

	gone := &models.User{ID: models.NewID()}
	mockRepo.On("SetRefreshToken", ctx, gone.ID, mock.AnythingOfType("string")).Return(nil).Once()
	tokens, err := authService.IssueTokens(ctx, gone)
	require.NoError(t, err)

	mockRepo.On("GetByID", ctx, gone.ID).Return(nil, repositories.ErrNotFound).Once()
	_, _, err = authService.RotateRefresh(ctx, tokens.RefreshToken)
	assert.Equal(t, models.KindUnauthenticated, models.KindOf(err))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Revoke(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, blobstore.NewMemoryStore(), nil, testTokens)

	userID := models.NewID()
	mockRepo.On("SetRefreshToken", ctx, userID, "").Return(nil).Once()
	assert.NoError(t, authService.Revoke(ctx, userID))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, blobstore.NewMemoryStore(), nil, testTokens)

	user := &models.User{ID: models.NewID(), Password: hashed(t, "old-pass")}
	mockRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	err := authService.ChangePassword(ctx, user.ID, "wrong", "new-pass")
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))

	mockRepo.On("Update", ctx, user).Return(nil).Once()
	require.NoError(t, authService.ChangePassword(ctx, user.ID, "old-pass", "new-pass"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("new-pass")))
	mockRepo.AssertExpectations(t)
}
