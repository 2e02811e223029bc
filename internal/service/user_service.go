package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/tokens"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

const JWTTokenExpire = 1 * time.Hour

type UserService struct {
	uow            uow.UOW
	userRepo       UserRepository
	jwtTokenSecret []byte
}

func NewUserService(u uow.UOW, jwtTokenSecret []byte) (*UserService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr
	}
	return &UserService{
		uow:            u,
		userRepo:       userRepo,
		jwtTokenSecret: jwtTokenSecret,
	}, nil
}

type RegisterUserArgs struct {
	Name     string
	Email    string
	Password string
}

type LoginUserArgs struct {
	Email    string
	Password string
}

// Register создает пользователя вместе с его кошельком в одной транзакции:
// пользователь без кошелька существовать не должен. После успешного создания
// генерирует jwt token. Возвращает созданного пользователя, токен и ошибку.
func (s *UserService) Register(ctx context.Context, args RegisterUserArgs) (*domain.User, string, error) {
	password, hashErr := s.hashPassword(args.Password)
	if hashErr != nil {
		return nil, "", fmt.Errorf("registering user: %s", hashErr.Error())
	}

	var user *domain.User
	var token string
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		walletRepo, walletRepoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
		if walletRepoErr != nil {
			return walletRepoErr //nolint:wrapcheck
		}

		var userErr error
		user, userErr = userRepo.CreateUser(c, repoargs.CreateUser{
			Name:     args.Name,
			Email:    args.Email,
			Password: password,
		})
		if userErr != nil {
			return userErr //nolint:wrapcheck
		}

		if _, walletErr := walletRepo.CreateWallet(c, user.ID); walletErr != nil {
			return walletErr //nolint:wrapcheck
		}

		var tokenErr error
		token, tokenErr = tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
		if tokenErr != nil {
			return tokenErr //nolint:wrapcheck
		}
		return nil
	})

	if txErr != nil {
		return nil, "", fmt.Errorf("registering user: %w", txErr)
	}
	return user, token, nil
}

// Login проверяет пару email/пароль. Если пользователь не найден, вернется
// domain.ErrRecordNotFound, если пароль не подошел — domain.ErrPasswordMissMatch.
func (s *UserService) Login(ctx context.Context, args LoginUserArgs) (*domain.User, string, error) {
	user, findErr := s.userRepo.FindUserByEmail(ctx, args.Email)
	if findErr != nil {
		return nil, "", fmt.Errorf("logging in: %w", findErr)
	}

	if !s.comparePasswords(user.Password, args.Password) {
		return nil, "", fmt.Errorf("logging in: %w", domain.ErrPasswordMissMatch)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("logging in: %s", tokenErr.Error())
	}
	return user, token, nil
}

// GetByID возвращает пользователя по id.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %s", err.Error())
	}
	return string(bytes), nil
}

func (s *UserService) comparePasswords(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
