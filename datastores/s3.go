package datastores

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/minio/minio-go/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/metrics"
	"github.com/t2bot/data-package-repo/util"
)

type s3Datastore struct {
	id           string
	client       *minio.Client
	bucket       string
	storageClass string
}

func newS3(ds config.DatastoreConfig) (*s3Datastore, error) {
	endpoint, epFound := ds.Options["endpoint"]
	bucket, bucketFound := ds.Options["bucketName"]
	accessKeyId, keyFound := ds.Options["accessKeyId"]
	accessSecret, secretFound := ds.Options["accessSecret"]
	region, regionFound := ds.Options["region"]
	storageClass, hasStorageClass := ds.Options["storageClass"]
	if !epFound || !bucketFound || !keyFound || !secretFound {
		return nil, errors.New("invalid configuration: missing s3 options for datastore " + ds.Id)
	}
	if !hasStorageClass {
		storageClass = "STANDARD"
	}

	useSsl := true
	useSslStr, sslFound := ds.Options["ssl"]
	if sslFound && useSslStr != "" {
		useSsl, _ = strconv.ParseBool(useSslStr)
	}

	var client *minio.Client
	var err error
	if regionFound {
		client, err = minio.NewWithRegion(endpoint, accessKeyId, accessSecret, useSsl, region)
	} else {
		client, err = minio.New(endpoint, accessKeyId, accessSecret, useSsl)
	}
	if err != nil {
		return nil, err
	}

	return &s3Datastore{
		id:           ds.Id,
		client:       client,
		bucket:       bucket,
		storageClass: storageClass,
	}, nil
}

func (s *s3Datastore) Id() string {
	return s.id
}

func (s *s3Datastore) EnsureBucketExists() error {
	found, err := s.client.BucketExists(s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return errors.New("bucket not found")
	}
	return nil
}

func (s *s3Datastore) Put(ctx context.Context, data io.Reader, size int64, contentType string) (string, int64, error) {
	var objectName string
	var err error

	// Ensure unique name
	exists := true
	attempts := 0
	for exists {
		objectName, err = util.GenerateObjectName()
		if err != nil {
			return "", 0, err
		}

		attempts++
		if attempts > 10 {
			return "", 0, errors.New("failed to generate suitable object name for S3 store")
		}
		metrics.S3Operations.With(prometheus.Labels{"operation": "StatObject"}).Inc()
		_, err = s.client.StatObjectWithContext(ctx, s.bucket, objectName, minio.StatObjectOptions{})
		if err != nil {
			merr := minio.ToErrorResponse(err)
			if merr.Code == "NoSuchKey" || merr.StatusCode == http.StatusNotFound {
				exists = false
			} else {
				return "", 0, err
			}
		}
	}

	if size < 0 {
		logrus.Warn("Uploading content of unknown length to s3 - this could result in high memory usage")
	}
	metrics.S3Operations.With(prometheus.Labels{"operation": "PutObject"}).Inc()
	written, err := s.client.PutObjectWithContext(ctx, s.bucket, objectName, data, size, minio.PutObjectOptions{
		StorageClass: s.storageClass,
		ContentType:  contentType,
	})
	if err != nil {
		return "", 0, err
	}
	if size >= 0 && written != size {
		_ = s.Remove(ctx, objectName)
		return "", 0, errors.New("staged size does not match expected size")
	}
	return objectName, written, nil
}

func (s *s3Datastore) Get(ctx context.Context, location string) (io.ReadCloser, error) {
	metrics.S3Operations.With(prometheus.Labels{"operation": "GetObject"}).Inc()
	return s.client.GetObjectWithContext(ctx, s.bucket, location, minio.GetObjectOptions{})
}

func (s *s3Datastore) Remove(ctx context.Context, location string) error {
	metrics.S3Operations.With(prometheus.Labels{"operation": "RemoveObject"}).Inc()
	return s.client.RemoveObject(s.bucket, location)
}
