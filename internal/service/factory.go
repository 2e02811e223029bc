package service

import (
	"fmt"

	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

type AppServices struct {
	UserService   *UserService
	WalletService *WalletService
}

func Factory(unitOfWork uow.UOW, jwtSecret []byte) (*AppServices, error) {
	userService, userServiceErr := NewUserService(unitOfWork, jwtSecret)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	walletService, walletServiceErr := NewWalletService(unitOfWork)
	if walletServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", walletServiceErr.Error())
	}

	return &AppServices{
		UserService:   userService,
		WalletService: walletService,
	}, nil
}
