package storage

import (
	"context"

	"github.com/theapemachine/s3flow/config"
)

/*
NewOpener returns an Opener that builds a fresh session for the configured
backend on every call. The configuration is copied so later changes to cfg
do not leak into sessions opened by this Opener.
*/
func NewOpener(cfg *config.Config) Opener {
	settings := *cfg

	if settings.StorageType == config.FileStorage {
		return func(ctx context.Context) (Session, error) {
			return NewFileStorage(settings.StoragePath)
		}
	}

	return func(ctx context.Context) (Session, error) {
		return NewS3Storage(ctx,
			WithRegion(settings.Region),
			WithEndpoint(settings.Endpoint),
			WithPathStyle(settings.ForcePathStyle),
			WithCredentials(settings.AccessKeyID, settings.SecretAccessKey),
		)
	}
}

/*
AsService narrows a session to the full S3 surface, failing with
ErrUnsupported for backends that do not provide it.
*/
func AsService(session Session) (Service, error) {
	service, ok := session.(Service)
	if !ok {
		return nil, ErrUnsupported
	}
	return service, nil
}
