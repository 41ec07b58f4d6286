package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/core/usecases"
)

type distanceRequest struct {
	Count  *int      `json:"count"`
	Points []float32 `json:"points"`
}

type streamRequest struct {
	Points domain.Stream `json:"points"`
}

type pairRequest struct {
	A      domain.Stream `json:"a"`
	B      domain.Stream `json:"b"`
	Radius *int          `json:"radius"`
	Exact  bool          `json:"exact"`
}

type consensusRequest struct {
	Streams     []domain.Stream `json:"streams"`
	IDs         []string        `json:"ids"`
	Approximate bool            `json:"approximate"`
	Async       bool            `json:"async"`
}

type createStreamRequest struct {
	Name   string        `json:"name"`
	Points domain.Stream `json:"points"`
}

// DistanceHandler measures a flat interleaved point buffer.
// POST /v1/streams/distance {"count":N,"points":[x0,y0,...]}
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req distanceRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Count == nil {
			return errBadRequest(c, "count is required")
		}

		d, err := deps.Streams.Distance(c.UserContext(), *req.Count, req.Points)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"distance": d})
	}
}

// SparsityHandler returns the per-point sparsity weights of a stream.
// POST /v1/streams/sparsity {"points":[{"x":..,"y":..},...]}
func SparsityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req streamRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		w, err := deps.Streams.Sparsity(c.UserContext(), req.Points)
		if err != nil {
			return errFromService(c, err)
		}
		if w == nil {
			w = []float64{}
		}
		return c.JSON(fiber.Map{"weights": w})
	}
}

// AlignHandler aligns two streams. Without a radius the engine default is
// used; "exact" requests the full cost matrix instead of FastDTW.
// POST /v1/streams/align {"a":[...],"b":[...],"radius":1,"exact":false}
func AlignHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req pairRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		radius, ok := pairRadius(deps, req)
		if !ok {
			return errBadRequest(c, "radius must be non-negative")
		}

		w, err := deps.Streams.Align(c.UserContext(), req.A, req.B, radius)
		if err != nil {
			return errFromService(c, err)
		}
		if w.Path == nil {
			w.Path = []domain.IndexPair{}
		}
		return c.JSON(w)
	}
}

// SimilarityHandler scores two streams in [0, 1].
// POST /v1/streams/similarity {"a":[...],"b":[...],"radius":1}
func SimilarityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req pairRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Exact {
			return errBadRequest(c, "similarity does not support exact alignment")
		}
		radius, ok := pairRadius(deps, req)
		if !ok {
			return errBadRequest(c, "radius must be non-negative")
		}

		s, err := deps.Streams.Similarity(c.UserContext(), req.A, req.B, radius)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"similarity": s})
	}
}

func pairRadius(deps *Dependencies, req pairRequest) (int, bool) {
	switch {
	case req.Exact:
		return -1, true
	case req.Radius == nil:
		return deps.Streams.Engine().Radius(), true
	case *req.Radius < 0:
		return 0, false
	}
	return *req.Radius, true
}

// ConsensusHandler picks the medoid of a collection. The collection is either
// given inline ("streams") or by stored stream IDs ("ids"). Stored
// collections may be processed in the background with "async".
// POST /v1/streams/consensus
func ConsensusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req consensusRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Streams) > 0 && len(req.IDs) > 0 {
			return errBadRequest(c, "give either streams or ids, not both")
		}

		if len(req.IDs) == 0 {
			if req.Async {
				return errBadRequest(c, "async consensus requires stored stream ids")
			}
			idx, err := deps.Streams.Consensus(c.UserContext(), req.Streams, req.Approximate)
			if err != nil {
				return errFromService(c, err)
			}
			return c.JSON(fiber.Map{"medoid_index": idx})
		}

		if req.Async {
			if deps.Consensus == nil {
				return errUnavailable(c, "background consensus is not configured")
			}
			id, err := deps.Consensus.StartConsensus(c.UserContext(), req.IDs, req.Approximate)
			if err != nil {
				return errFromService(c, err)
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"workflow_id": id})
		}

		event, err := deps.Streams.ConsensusOf(c.UserContext(), req.IDs, req.Approximate)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(event)
	}
}

// CreateStreamHandler measures and stores a stream. With ?async=true the
// stream is queued on NATS and 202 is returned with the ID it will get.
// POST /v1/streams {"name":"...","points":[...]}
func CreateStreamHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createStreamRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		req.Name = strings.TrimSpace(req.Name)

		if c.QueryBool("async", false) {
			id, err := deps.Streams.Submit(c.UserContext(), req.Name, req.Points)
			if err != nil {
				return errFromService(c, err)
			}
			c.Location("/v1/streams/" + id)
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": id, "status": "queued"})
		}

		rec, err := deps.Streams.Create(c.UserContext(), req.Name, req.Points)
		if err != nil {
			return errFromService(c, err)
		}
		c.Location("/v1/streams/" + rec.ID)
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ListStreamsHandler returns stored streams, newest first.
// GET /v1/streams?offset=0&limit=50
func ListStreamsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit, err := parsePage(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		recs, total, err := deps.Streams.List(c.UserContext(), offset, limit)
		if err != nil {
			return errFromService(c, err)
		}
		if recs == nil {
			recs = []domain.StreamRecord{}
		}

		p := Pagination{Offset: offset, Limit: usecases.ClampLimit(limit), Total: total}
		SetLinkHeaders(c, p)
		return c.JSON(PaginatedResponse{Data: recs, Pagination: p})
	}
}

// GetStreamHandler returns one stored stream.
// GET /v1/streams/:id
func GetStreamHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := deps.Streams.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(rec)
	}
}

// StreamDistanceHandler returns the distance recorded for a stored stream.
// GET /v1/streams/:id/distance
func StreamDistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		d, err := deps.Streams.StoredDistance(c.UserContext(), id)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "distance": d})
	}
}
