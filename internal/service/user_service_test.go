package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/internal/service/mocks"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/tokens"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	uowmocks "github.com/fsdevblog/groph-wallet/pkg/uow/mocks"
)

type UserServiceTestSuite struct {
	suite.Suite
	mockCtrl       *gomock.Controller
	mockUOW        *uowmocks.MockUOW
	mockTX         *uowmocks.MockTX
	mockUserRepo   *mocks.MockUserRepository
	mockWalletRepo *mocks.MockWalletRepository
	jwtSecret      []byte
	service        *UserService
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(s.mockCtrl)
	s.mockWalletRepo = mocks.NewMockWalletRepository(s.mockCtrl)
	s.jwtSecret = []byte("super secret key")

	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()

	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil).AnyTimes()

	s.mockUOW.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		}).AnyTimes()

	var err error
	s.service, err = NewUserService(s.mockUOW, s.jwtSecret)
	s.Require().NoError(err)
}

func (s *UserServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

// TestRegister пользователь и его кошелек создаются в одной атомарной единице.
func (s *UserServiceTestSuite) TestRegister() {
	args := RegisterUserArgs{Name: "Alice", Email: "alice@example.com", Password: "password"}
	created := domain.User{ID: 1, Name: args.Name, Email: args.Email}

	s.mockUserRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.AssignableToTypeOf(repoargs.CreateUser{})).
		DoAndReturn(func(_ context.Context, repoArgs repoargs.CreateUser) (*domain.User, error) {
			s.Equal(args.Name, repoArgs.Name)
			s.Equal(args.Email, repoArgs.Email)
			// пароль уходит в репозиторий только в виде bcrypt-хэша
			s.NotEqual(args.Password, repoArgs.Password)
			s.NoError(bcrypt.CompareHashAndPassword([]byte(repoArgs.Password), []byte(args.Password)))
			return &created, nil
		})
	s.mockWalletRepo.EXPECT().
		CreateWallet(gomock.Any(), created.ID).
		Return(&domain.Wallet{ID: 5, UserID: created.ID}, nil)

	user, token, err := s.service.Register(s.T().Context(), args)
	s.Require().NoError(err)
	s.Equal(created.ID, user.ID)

	// токен должен валидироваться тем же секретом
	parsed, tokenErr := tokens.ValidateUserJWT(token, s.jwtSecret)
	s.Require().NoError(tokenErr)
	claims, ok := parsed.Claims.(*tokens.UserClaims)
	s.Require().True(ok)
	s.Equal(created.ID, claims.ID)
}

func (s *UserServiceTestSuite) TestRegister_DuplicateEmail() {
	args := RegisterUserArgs{Name: "Alice", Email: "alice@example.com", Password: "password"}

	// Кошелек не создается: транзакция откатывается на первом же шаге.
	s.mockUserRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrDuplicateKey)

	_, _, err := s.service.Register(s.T().Context(), args)
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrDuplicateKey)
}

func (s *UserServiceTestSuite) TestLogin() {
	password := "password"
	hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	s.Require().NoError(hashErr)

	user := domain.User{ID: 1, Email: "alice@example.com", Password: string(hash)}

	s.mockUserRepo.EXPECT().
		FindUserByEmail(gomock.Any(), user.Email).
		Return(&user, nil).Times(2)

	// верный пароль
	logged, token, err := s.service.Login(s.T().Context(), LoginUserArgs{Email: user.Email, Password: password})
	s.Require().NoError(err)
	s.Equal(user.ID, logged.ID)
	s.NotEmpty(token)

	// неверный пароль
	_, _, wrongErr := s.service.Login(s.T().Context(), LoginUserArgs{Email: user.Email, Password: "wrong pass"})
	s.Require().Error(wrongErr)
	s.ErrorIs(wrongErr, domain.ErrPasswordMissMatch)
}

func (s *UserServiceTestSuite) TestLogin_UnknownUser() {
	s.mockUserRepo.EXPECT().
		FindUserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, domain.ErrRecordNotFound)

	_, _, err := s.service.Login(s.T().Context(), LoginUserArgs{Email: "ghost@example.com", Password: "password"})
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *UserServiceTestSuite) TestGetByID() {
	user := domain.User{ID: 1, Name: "Alice", Email: "alice@example.com"}

	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), user.ID).Return(&user, nil)

	got, err := s.service.GetByID(s.T().Context(), user.ID)
	s.Require().NoError(err)
	s.Equal(&user, got)
}
