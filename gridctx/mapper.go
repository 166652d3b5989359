package gridctx

import (
	"net/http"
	"strings"
)

// Wire headers used by HTTPMapper. Inbound values are adopted verbatim;
// outbound propagation via Inject writes the same keys.
const (
	HeaderCorrelationID  = "X-Grid-Correlation-Id"
	HeaderCausationID    = "X-Grid-Causation-Id"
	HeaderMetadataPrefix = "X-Grid-Meta-"
)

// Message header keys used by MessageMapper, matching the broker envelope
// conventions of the platform.
const (
	MessageCorrelationKey = "correlation_id"
	MessageCausationKey   = "causation_id"
	MessageMetadataPrefix = "meta_"
)

// HTTPMapper translates inbound HTTP requests into GridContexts and injects
// outbound lineage into client requests.
type HTTPMapper struct {
	Generator IDGenerator
	// Options are applied to every mapped root (e.g. WithMaxChainDepth).
	Options []Option
}

// Map produces the GridContext for an inbound request: the correlation id is
// adopted from X-Grid-Correlation-Id when present (minted otherwise), the
// inbound causation id becomes the parent link of a freshly minted leaf, and
// X-Grid-Meta-* headers become grid metadata.
func (m HTTPMapper) Map(r *http.Request) GridContext {
	gc := Adopt(m.Generator,
		ID(r.Header.Get(HeaderCorrelationID)),
		ID(r.Header.Get(HeaderCausationID)),
		m.Options...)

	for name, values := range r.Header {
		if !strings.HasPrefix(name, HeaderMetadataPrefix) || len(values) == 0 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, HeaderMetadataPrefix))
		gc = gc.WithMetadata(key, values[0])
	}
	return gc
}

// Inject writes the context's correlation id, current leaf, and metadata
// onto an outbound request so the downstream node can adopt the lineage.
func (m HTTPMapper) Inject(gc GridContext, r *http.Request) {
	r.Header.Set(HeaderCorrelationID, string(gc.CorrelationID))
	r.Header.Set(HeaderCausationID, string(gc.LeafID()))
	for key, value := range gc.Metadata {
		r.Header.Set(HeaderMetadataPrefix+key, value)
	}
}

// JobMapper translates scheduled job invocations into GridContexts.
type JobMapper struct {
	Generator IDGenerator
	Options   []Option
}

// Map produces the GridContext for a job run. triggerID, when non-empty,
// becomes the correlation id so retries of one trigger share a correlation;
// the job name is recorded as metadata.
func (m JobMapper) Map(jobName string, triggerID ID) GridContext {
	gc := Adopt(m.Generator, triggerID, "", m.Options...)
	return gc.WithMetadata("job", jobName)
}

// MessageMapper translates message deliveries into GridContexts using the
// envelope's string headers.
type MessageMapper struct {
	Generator IDGenerator
	Options   []Option
}

// Map produces the GridContext for a delivered message: correlation and
// causation ids are adopted from the envelope headers when present, and
// meta_-prefixed headers become grid metadata.
func (m MessageMapper) Map(headers map[string]string) GridContext {
	gc := Adopt(m.Generator,
		ID(headers[MessageCorrelationKey]),
		ID(headers[MessageCausationKey]),
		m.Options...)

	for key, value := range headers {
		if !strings.HasPrefix(key, MessageMetadataPrefix) {
			continue
		}
		gc = gc.WithMetadata(strings.TrimPrefix(key, MessageMetadataPrefix), value)
	}
	return gc
}
