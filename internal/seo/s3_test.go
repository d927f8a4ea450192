package seo

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func TestS3Source_List(t *testing.T) {
	client := new(mockS3)
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Bucket) == "relatorios" && aws.ToString(in.Prefix) == "seo/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("seo/varejo/b.json")},
			{Key: aws.String("seo/a.JSON")},
			{Key: aws.String("seo/leia-me.md")},
			{Key: aws.String("seo/")},
		},
	}, nil)

	src := NewS3SourceWithClient(client, "relatorios", "seo")
	keys, err := src.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.JSON", "varejo/b.json"}, keys)
	assert.Equal(t, "s3://relatorios/seo/", src.Name())
	client.AssertExpectations(t)
}

func TestS3Source_Read(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "seo/varejo/b.json"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(`{"conteudo":"Backlinks: 3"}`)),
	}, nil)

	src := NewS3SourceWithClient(client, "relatorios", "seo/")
	data, err := src.Read(context.Background(), "varejo/b.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"conteudo":"Backlinks: 3"}`, string(data))
}

func TestS3Source_ListError(t *testing.T) {
	client := new(mockS3)
	client.On("ListObjectsV2", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	src := NewS3SourceWithClient(client, "relatorios", "")
	_, err := src.List(context.Background())
	assert.ErrorContains(t, err, "access denied")
}
