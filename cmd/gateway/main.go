package main

import (
	"net/http"

	"github.com/carlosbarrancotena/practica5/graph"
	"github.com/carlosbarrancotena/practica5/internal/clients"
	"github.com/carlosbarrancotena/practica5/internal/middleware"
	"github.com/carlosbarrancotena/practica5/internal/resolvers"
	"github.com/carlosbarrancotena/practica5/pkg/config"
	"github.com/carlosbarrancotena/practica5/pkg/logging"
	"github.com/carlosbarrancotena/practica5/pkg/monitoring"
	"github.com/carlosbarrancotena/practica5/pkg/server"
	"github.com/carlosbarrancotena/practica5/pkg/version"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-gonic/gin"
)

const (
	serviceName = "pokegraph"
	listenPort  = "8000"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService(serviceName)

	// Load environment variables
	config.LoadEnv(logger)

	logger.WithFields(logging.Fields{
		"version": version.Version,
		"commit":  version.GetShortCommit(),
	}).Info("Starting Pokémon GraphQL Gateway")

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)
	graphqlMetrics := resolvers.NewGraphQLMetrics(metricsCollector)

	clientsConfig := clients.ConfigFromEnv(logger)
	clientsConfig.Observer = graphqlMetrics.ObserveUpstream
	serviceClients, err := clients.NewServiceClients(clientsConfig)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize service clients")
	}

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"POKEAPI_BASE_URL": serviceClients.PokeAPI.BaseURL(),
	}))
	if config.GetEnvBool("POKEAPI_HEALTH_CHECK", false) {
		healthChecker.AddCheck("pokeapi", monitoring.HTTPServiceHealthCheck("pokeapi", serviceClients.PokeAPI.PokemonByIDURL(1), false))
	}

	// Initialize GraphQL resolver and schema
	resolver := graph.NewResolver(serviceClients, logger, graphqlMetrics)
	resolver.FanOutLimit = config.GetEnvInt("GRAPHQL_FANOUT_LIMIT", 0)

	schema, err := graph.NewSchema(resolver, config.GetEnvInt("GRAPHQL_MAX_PARALLELISM", graph.DefaultMaxParallelism))
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse GraphQL schema")
	}
	gqlHandler := gin.WrapH(graph.NewHandler(schema))

	// Add query depth limit to prevent deeply nested queries
	maxDepth := config.GetEnvInt("GRAPHQL_MAX_DEPTH", 10)
	depthLimit := middleware.GraphQLDepthLimit(maxDepth, logger)
	if maxDepth > 0 {
		logger.WithField("max_depth", maxDepth).Info("GraphQL depth limit enabled")
	}

	app := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)

	app.GET("/status", statusHandler())

	app.POST("/", depthLimit, gqlHandler)
	app.POST("/graphql", depthLimit, gqlHandler)

	playgroundEnabled := config.GetEnvBool("GRAPHQL_PLAYGROUND_ENABLED", config.GetEnv("GIN_MODE", "debug") != "release")
	if playgroundEnabled {
		app.GET("/graphql/playground", gin.WrapH(playground.Handler("Pokémon GraphQL Playground", "/graphql")))
		logger.Info("GraphQL Playground enabled at /graphql/playground")
	}

	// Start server with graceful shutdown
	if err := server.Start(server.DefaultConfig(serviceName, listenPort), app, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}

// statusHandler reports readiness together with the build the process runs.
func statusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"status":  "ready",
			"message": "Pokémon GraphQL Gateway - Ready",
			"build":   version.GetInfo(),
		})
	}
}
