package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the stream service.
// Coordinates cross the GraphQL boundary as flat [x0, y0, x1, y1, ...] lists.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Point",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_x": &graphql.Field{Type: graphql.Float},
			"min_y": &graphql.Field{Type: graphql.Float},
			"max_x": &graphql.Field{Type: graphql.Float},
			"max_y": &graphql.Field{Type: graphql.Float},
		},
	})

	streamType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stream",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"n_points":   &graphql.Field{Type: graphql.Int},
			"distance":   &graphql.Field{Type: graphql.Float},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"bounds":     &graphql.Field{Type: boundsType},
			"points":     &graphql.Field{Type: graphql.NewList(pointType)},
		},
	})

	indexPairType := graphql.NewObject(graphql.ObjectConfig{
		Name: "IndexPair",
		Fields: graphql.Fields{
			"i": &graphql.Field{Type: graphql.Int},
			"j": &graphql.Field{Type: graphql.Int},
		},
	})

	warpType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Warp",
		Fields: graphql.Fields{
			"cost": &graphql.Field{Type: graphql.Float},
			"path": &graphql.Field{Type: graphql.NewList(indexPairType)},
		},
	})

	coords := graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Float)))

	pairArgs := graphql.FieldConfigArgument{
		"a":      &graphql.ArgumentConfig{Type: coords},
		"b":      &graphql.ArgumentConfig{Type: coords},
		"radius": &graphql.ArgumentConfig{Type: graphql.Int},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Length of a flat coordinate list; count defaults to len(points)/2",
				Args: graphql.FieldConfigArgument{
					"points": &graphql.ArgumentConfig{Type: coords},
					"count":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					flat, err := floatsArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					count := len(flat) / 2
					if n, ok := p.Args["count"].(int); ok {
						count = n
					}
					buf := make([]float32, len(flat))
					for i, v := range flat {
						buf[i] = float32(v)
					}
					return deps.Streams.Distance(p.Context, count, buf)
				},
			},
			"stream": &graphql.Field{
				Type: streamType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return deps.Streams.Get(p.Context, id)
				},
			},
			"streams": &graphql.Field{
				Type: graphql.NewList(streamType),
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, _ := p.Args["limit"].(int)
					offset, _ := p.Args["offset"].(int)
					recs, _, err := deps.Streams.List(p.Context, offset, limit)
					return recs, err
				},
			},
			"similarity": &graphql.Field{
				Type: graphql.Float,
				Args: pairArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a, b, radius, err := pairArgsOf(deps, p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Streams.Similarity(p.Context, a, b, radius)
				},
			},
			"align": &graphql.Field{
				Type: warpType,
				Args: pairArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a, b, radius, err := pairArgsOf(deps, p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Streams.Align(p.Context, a, b, radius)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createStream": &graphql.Field{
				Type: streamType,
				Args: graphql.FieldConfigArgument{
					"name":   &graphql.ArgumentConfig{Type: graphql.String},
					"points": &graphql.ArgumentConfig{Type: coords},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					flat, err := floatsArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					name, _ := p.Args["name"].(string)
					return deps.Streams.Create(p.Context, name, domain.StreamFromFlat(flat))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func floatsArg(v interface{}) ([]float64, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of coordinates", domain.ErrInvalidInput)
	}
	out := make([]float64, len(list))
	for i, item := range list {
		switch f := item.(type) {
		case float64:
			out[i] = f
		case int:
			out[i] = float64(f)
		default:
			return nil, fmt.Errorf("%w: coordinate %d is not a number", domain.ErrInvalidInput, i)
		}
	}
	return out, nil
}

func pairArgsOf(deps *Dependencies, args map[string]interface{}) (a, b domain.Stream, radius int, err error) {
	fa, err := floatsArg(args["a"])
	if err != nil {
		return nil, nil, 0, err
	}
	fb, err := floatsArg(args["b"])
	if err != nil {
		return nil, nil, 0, err
	}
	radius = deps.Streams.Engine().Radius()
	if r, ok := args["radius"].(int); ok {
		if r < 0 {
			return nil, nil, 0, fmt.Errorf("%w: radius must be non-negative", domain.ErrInvalidInput)
		}
		radius = r
	}
	return domain.StreamFromFlat(fa), domain.StreamFromFlat(fb), radius, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// Programming error in the schema definition.
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
