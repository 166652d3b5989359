package gridctx_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio-grid/kernel/gridctx"
)

func TestHTTPMapperAdoptsInboundLineage(t *testing.T) {
	gen := &seqGen{}
	mapper := gridctx.HTTPMapper{Generator: gen}

	r := httptest.NewRequest("GET", "/work", nil)
	r.Header.Set(gridctx.HeaderCorrelationID, "corr-42")
	r.Header.Set(gridctx.HeaderCausationID, "cause-7")
	r.Header.Set(gridctx.HeaderMetadataPrefix+"Tenant", "studio-a")

	gc := mapper.Map(r)

	assert.Equal(t, gridctx.ID("corr-42"), gc.CorrelationID)
	require.Equal(t, 2, gc.Depth())
	assert.Equal(t, gridctx.ID("cause-7"), gc.CausationChain[0])
	assert.Equal(t, "studio-a", gc.Metadata["tenant"])
}

func TestHTTPMapperMintsWhenHeadersAbsent(t *testing.T) {
	gen := &seqGen{}
	mapper := gridctx.HTTPMapper{Generator: gen}

	gc := mapper.Map(httptest.NewRequest("GET", "/work", nil))

	assert.NotEmpty(t, gc.CorrelationID)
	assert.Equal(t, 1, gc.Depth())
}

func TestHTTPMapperInjectRoundTrip(t *testing.T) {
	gen := &seqGen{}
	mapper := gridctx.HTTPMapper{Generator: gen}

	gc := gridctx.New(gen).WithMetadata("tenant", "studio-a")
	out := httptest.NewRequest("POST", "/downstream", nil)
	mapper.Inject(gc, out)

	adopted := mapper.Map(out)
	assert.Equal(t, gc.CorrelationID, adopted.CorrelationID)
	require.Equal(t, 2, adopted.Depth())
	assert.Equal(t, gc.LeafID(), adopted.CausationChain[0],
		"outbound leaf becomes the downstream parent link")
	assert.Equal(t, "studio-a", adopted.Metadata["tenant"])
}

func TestJobMapper(t *testing.T) {
	gen := &seqGen{}
	mapper := gridctx.JobMapper{Generator: gen}

	gc := mapper.Map("cleanup", "trigger-9")
	assert.Equal(t, gridctx.ID("trigger-9"), gc.CorrelationID)
	assert.Equal(t, "cleanup", gc.Metadata["job"])

	minted := mapper.Map("cleanup", "")
	assert.NotEmpty(t, minted.CorrelationID)
	assert.NotEqual(t, gc.CorrelationID, minted.CorrelationID)
}

func TestMessageMapper(t *testing.T) {
	gen := &seqGen{}
	mapper := gridctx.MessageMapper{Generator: gen}

	gc := mapper.Map(map[string]string{
		gridctx.MessageCorrelationKey:         "corr-m",
		gridctx.MessageCausationKey:           "cause-m",
		gridctx.MessageMetadataPrefix + "job": "encode",
	})

	assert.Equal(t, gridctx.ID("corr-m"), gc.CorrelationID)
	require.Equal(t, 2, gc.Depth())
	assert.Equal(t, gridctx.ID("cause-m"), gc.CausationChain[0])
	assert.Equal(t, "encode", gc.Metadata["job"])
}
