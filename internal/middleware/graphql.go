package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/carlosbarrancotena/practica5/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// maxBodyBytes caps how much of a request body is buffered for inspection
const maxBodyBytes = 1 << 20

type graphQLRequest struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName"`
}

// GraphQLDepthLimit rejects queries whose selection depth exceeds maxDepth
// with HTTP 400 and a GraphQL error body. Requests it cannot parse are left
// for the engine to report. maxDepth <= 0 disables the check.
func GraphQLDepthLimit(maxDepth int, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxDepth <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		_ = c.Request.Body.Close()
		if err != nil {
			abortWithGraphQLError(c, http.StatusBadRequest, "failed to read request body")
			return
		}
		if len(body) > maxBodyBytes {
			abortWithGraphQLError(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var req graphQLRequest
		if err := json.Unmarshal(body, &req); err != nil || req.Query == "" {
			c.Next()
			return
		}

		doc, parseErr := parser.ParseQuery(&ast.Source{Input: req.Query})
		if parseErr != nil {
			c.Next()
			return
		}

		depth := calculateQueryDepth(doc)
		if depth > maxDepth {
			if logger != nil {
				logging.FromContext(c.Request.Context(), logger).WithFields(logging.Fields{
					"depth":     depth,
					"max_depth": maxDepth,
					"operation": req.OperationName,
				}).Warn("GraphQL query rejected by depth limit")
			}
			abortWithGraphQLError(c, http.StatusBadRequest,
				fmt.Sprintf("query exceeds maximum depth of %d (got %d)", maxDepth, depth))
			return
		}

		c.Next()
	}
}

func abortWithGraphQLError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"errors": []gin.H{{"message": message}},
	})
}

// calculateQueryDepth walks the GraphQL AST and returns the maximum selection depth.
// Depth is counted from field selections (not from operation root).
func calculateQueryDepth(doc *ast.QueryDocument) int {
	maxDepth := 0
	for _, op := range doc.Operations {
		if d := selectionSetDepth(doc, op.SelectionSet, map[string]bool{}); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// selectionSetDepth follows named fragments so spreads cannot hide nesting.
// visiting guards against fragment cycles, which validation rejects later.
func selectionSetDepth(doc *ast.QueryDocument, set ast.SelectionSet, visiting map[string]bool) int {
	maxDepth := 0
	for _, sel := range set {
		var childDepth int
		switch s := sel.(type) {
		case *ast.Field:
			childDepth = 1 + selectionSetDepth(doc, s.SelectionSet, visiting)
		case *ast.InlineFragment:
			childDepth = selectionSetDepth(doc, s.SelectionSet, visiting)
		case *ast.FragmentSpread:
			frag := doc.Fragments.ForName(s.Name)
			if frag == nil || visiting[s.Name] {
				continue
			}
			visiting[s.Name] = true
			childDepth = selectionSetDepth(doc, frag.SelectionSet, visiting)
			delete(visiting, s.Name)
		}
		if childDepth > maxDepth {
			maxDepth = childDepth
		}
	}
	return maxDepth
}
