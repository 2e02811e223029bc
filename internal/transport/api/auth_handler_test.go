package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/service"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/testutils"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/tokens"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	userService *mocks.MockUserServicer
	router      http.Handler
	jwtSecret   []byte
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.userService = mocks.NewMockUserServicer(s.ctrl)
	s.jwtSecret = []byte("test-secret")

	s.router = New(RouterArgs{
		UserService:   s.userService,
		WalletService: mocks.NewMockWalletServicer(s.ctrl),
		JWTSecretKey:  s.jwtSecret,
	})
}

func (s *AuthHandlerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

type userEnvelope struct {
	User UserResponse `json:"user"`
}

func (s *AuthHandlerTestSuite) TestRegister() {
	user := &domain.User{ID: 42, Name: "alice", Email: "alice@example.com"}

	s.userService.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{
			Name:     "alice",
			Email:    "alice@example.com",
			Password: "secret123",
		}).
		Return(user, "issued-token", nil)

	resp := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + RegisterRoute,
		Body:   strings.NewReader(`{"name": "alice", "email": "alice@example.com", "password": "secret123"}`),
	})
	defer func() { _ = resp.Body.Close() }()

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Bearer issued-token", resp.Header.Get("Authorization"))

	var body userEnvelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(user.ID, body.User.ID)
	s.Equal(user.Email, body.User.Email)
}

func (s *AuthHandlerTestSuite) TestRegister_ValidationError() {
	resp := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + RegisterRoute,
		Body:   strings.NewReader(`{"name": "alice", "email": "not-an-email", "password": "secret123"}`),
	})
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *AuthHandlerTestSuite) TestRegister_DuplicateEmail() {
	s.userService.EXPECT().
		Register(gomock.Any(), gomock.Any()).
		Return(nil, "", domain.ErrDuplicateKey)

	resp := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + RegisterRoute,
		Body:   strings.NewReader(`{"name": "alice", "email": "alice@example.com", "password": "secret123"}`),
	})
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *AuthHandlerTestSuite) TestRegister_AlreadyAuthorized() {
	token, err := tokens.GenerateUserJWT(42, time.Minute, s.jwtSecret)
	s.Require().NoError(err)

	resp := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + RegisterRoute,
		Body:   strings.NewReader(`{"name": "alice", "email": "alice@example.com", "password": "secret123"}`),
	}, testutils.WithBearerToken(token))
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *AuthHandlerTestSuite) TestLogin() {
	user := &domain.User{ID: 42, Name: "alice", Email: "alice@example.com"}

	s.userService.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{
			Email:    "alice@example.com",
			Password: "secret123",
		}).
		Return(user, "issued-token", nil)

	resp := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + LoginRoute,
		Body:   strings.NewReader(`{"email": "alice@example.com", "password": "secret123"}`),
	})
	defer func() { _ = resp.Body.Close() }()

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Bearer issued-token", resp.Header.Get("Authorization"))

	var body userEnvelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(user.ID, body.User.ID)
}

func (s *AuthHandlerTestSuite) TestLogin_InvalidCredentials() {
	s.userService.EXPECT().
		Login(gomock.Any(), gomock.Any()).
		Return(nil, "", domain.ErrPasswordMissMatch)

	resp := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + LoginRoute,
		Body:   strings.NewReader(`{"email": "alice@example.com", "password": "wrongpass"}`),
	})
	defer func() { _ = resp.Body.Close() }()

	s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal("invalid credentials", body["error"])
}

func (s *AuthHandlerTestSuite) TestLogin_UnknownUser() {
	s.userService.EXPECT().
		Login(gomock.Any(), gomock.Any()).
		Return(nil, "", domain.ErrRecordNotFound)

	resp := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + LoginRoute,
		Body:   strings.NewReader(`{"email": "ghost@example.com", "password": "secret123"}`),
	})
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
