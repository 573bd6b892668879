package grpcstore

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clehr.dev/recordkit/storage"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.AlreadyExists:
		return storage.ErrDuplicateContainer
	case codes.FailedPrecondition:
		// Server folds both batch and immutability violations into
		// FailedPrecondition; the message carries the sentinel text.
		if strings.Contains(st.Message(), storage.ErrImmutable.Error()) {
			return storage.ErrImmutable
		}
		return storage.ErrBatchInconsistent
	default:
		// Best-effort: if the server sent a known storage error message, preserve it.
		switch st.Message() {
		case storage.ErrNotFound.Error():
			return storage.ErrNotFound
		case storage.ErrDuplicateContainer.Error():
			return storage.ErrDuplicateContainer
		case storage.ErrBatchInconsistent.Error():
			return storage.ErrBatchInconsistent
		default:
			return err
		}
	}
}
