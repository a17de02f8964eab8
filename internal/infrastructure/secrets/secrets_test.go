package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/shared"
)

type fakeSSM struct {
	pages []*ssm.GetParametersByPathOutput
	err   error
	calls int
}

func (f *fakeSSM) GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := f.pages[f.calls]
	f.calls++
	return out, nil
}

func param(name, value string) types.Parameter {
	return types.Parameter{Name: aws.String(name), Value: aws.String(value)}
}

func TestUpstreamCredentials(t *testing.T) {
	t.Run("returns user and pass", func(t *testing.T) {
		client := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{{
			Parameters: []types.Parameter{
				param("/prod/mip/user", "api-user"),
				param("/prod/mip/pass", "api-pass"),
			},
		}}}
		p := NewProviderWithClient(client, "/prod/mip", zap.NewNop())

		user, pass, err := p.UpstreamCredentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "api-user", user)
		assert.Equal(t, "api-pass", pass)
	})

	t.Run("follows pagination", func(t *testing.T) {
		client := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{
			{
				Parameters: []types.Parameter{param("/prod/mip/user", "api-user")},
				NextToken:  aws.String("page-2"),
			},
			{
				Parameters: []types.Parameter{param("/prod/mip/pass", "api-pass")},
			},
		}}
		p := NewProviderWithClient(client, "/prod/mip/", zap.NewNop())

		user, pass, err := p.UpstreamCredentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "api-user", user)
		assert.Equal(t, "api-pass", pass)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("missing parameter is a config error", func(t *testing.T) {
		client := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{{
			Parameters: []types.Parameter{param("/prod/mip/user", "api-user")},
		}}}
		p := NewProviderWithClient(client, "/prod/mip", zap.NewNop())

		_, _, err := p.UpstreamCredentials(context.Background())
		assert.ErrorIs(t, err, shared.ErrConfig)
	})

	t.Run("SSM failure is a config error", func(t *testing.T) {
		client := &fakeSSM{err: errors.New("access denied")}
		p := NewProviderWithClient(client, "/prod/mip", zap.NewNop())

		_, _, err := p.UpstreamCredentials(context.Background())
		assert.ErrorIs(t, err, shared.ErrConfig)
		assert.Contains(t, err.Error(), "access denied")
	})
}
