package service

import (
	"errors"

	"formcraft_backend/internal/richtext"
	"formcraft_backend/internal/util"
	"formcraft_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// storeErr 把仓储层错误转换为领域错误：不存在 -> ErrNotFound，描述损坏原样上抛，其余视为可重试的传输错误
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var decodeErr *richtext.DecodeError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.ErrNotFound
	case errors.As(err, &decodeErr):
		logger.Log.Warn("Stored rich text failed to decode", zap.String("op", op), zap.Error(err))
		return err
	}
	logger.Log.Error("Store call failed", zap.String("op", op), zap.Error(err))
	return util.Transport(op, err)
}

func outcome(err error) string {
	var verr *util.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, util.ErrForbidden), errors.Is(err, util.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, util.ErrNotFound):
		return "not_found"
	}
	return "error"
}
