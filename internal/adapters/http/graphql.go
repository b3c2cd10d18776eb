package http

import (
	"maps"
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	paramType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Param",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"value": &graphql.Field{Type: graphql.String},
		},
	})

	featureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feature",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.String},
			"type":   &graphql.Field{Type: graphql.String},
			"tag":    &graphql.Field{Type: graphql.String},
			"coords": &graphql.Field{Type: graphql.NewList(coordinateType)},
			"params": &graphql.Field{Type: graphql.NewList(paramType)},
		},
	})

	eventType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Event",
		Fields: graphql.Fields{
			"action": &graphql.Field{Type: graphql.String},
			"ids":    &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"features": &graphql.Field{
				Type:        graphql.NewList(featureType),
				Description: "List stored features in insertion order",
				Args: graphql.FieldConfigArgument{
					"tag": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tag, _ := p.Args["tag"].(string)
					features, err := deps.Features.List(p.Context, tag)
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(features))
					for _, f := range features {
						result = append(result, featureToGraph(f))
					}
					return result, nil
				},
			},
			"feature": &graphql.Field{
				Type:        featureType,
				Description: "Get a feature by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					f, err := deps.Features.Get(p.Context, id)
					if err != nil {
						return nil, nil
					}
					return featureToGraph(f), nil
				},
			},
			"count": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of stored features",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Features.Count(), nil
				},
			},
			"commands": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Registered command names",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Commands.Commands(), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"execute": &graphql.Field{
				Type:        eventType,
				Description: "Run one command line",
				Args: graphql.FieldConfigArgument{
					"line": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					line := p.Args["line"].(string)
					event, err := deps.Commands.Execute(p.Context, "graphql", line)
					if err != nil {
						return nil, err
					}
					ids := event.FeatureIDs()
					if ids == nil {
						ids = []string{}
					}
					return map[string]interface{}{
						"action": string(event.Action()),
						"ids":    ids,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// featureToGraph flattens a feature for the GraphQL resolvers. Params are
// exposed as key/value pairs because their value types vary.
func featureToGraph(f domain.Feature) map[string]interface{} {
	coords := make([]map[string]interface{}, 0, len(f.Coords))
	for _, c := range f.Coords {
		coords = append(coords, map[string]interface{}{"lat": c.Lat, "lng": c.Lng})
	}

	keys := slices.Sorted(maps.Keys(f.Params))
	params := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		params = append(params, map[string]interface{}{"key": k, "value": usecases.FormatParam(f.Params[k])})
	}

	m := map[string]interface{}{
		"id":     f.ID,
		"type":   string(f.Kind),
		"coords": coords,
		"params": params,
	}
	if tag, ok := f.Tag(); ok {
		m["tag"] = tag
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
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
