package api

import (
	"encoding/json"

	"mock-response-service/internal/common/errors"
	"mock-response-service/internal/storage"
	generateresponse "mock-response-service/internal/workers/mock/generate-response"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleServices(c *fiber.Ctx) error {
	return c.JSON(s.deps.Catalog.Catalog().Services)
}

// handleGenerateResponse takes the selections object as the whole body.
func (s *Server) handleGenerateResponse(c *fiber.Ctx) error {
	if s.deps.Generator == nil {
		return errors.NewStoreNotConfiguredError("generate-response")
	}
	var body interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return errors.NewInvalidInputError("request body must be a JSON object")
	}

	output, err := s.deps.Generator.Execute(c.UserContext(), &generateresponse.Input{Selections: body})
	if err != nil {
		return err
	}
	return c.JSON(output)
}

func (s *Server) handleResponsesByUser(c *fiber.Ctx) error {
	docs, err := s.responsesFor(c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(docs)
}

func (s *Server) responsesFor(userID string) ([]storage.Document, error) {
	if s.deps.Store == nil {
		return nil, errors.NewStoreNotConfiguredError("api")
	}
	docs := s.deps.Store.FindByUniqueKey(storage.ResponsesCollection, "userId", userID)
	if len(docs) == 0 {
		return nil, errors.NewNotFoundError("No responses found for this userId", "userId: "+userID)
	}
	return docs, nil
}

// handleMockPayload serves the payload of the first response for userId that
// selected the service. Payloads rendered at generation are served as stored;
// otherwise the flavor template is rendered now.
func (s *Server) handleMockPayload(c *fiber.Ctx) error {
	service := c.Params("service")
	userID := c.Params("userId")

	docs, err := s.responsesFor(userID)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		flavor, ok := selectedFlavor(doc, service)
		if !ok {
			continue
		}
		if payloads, ok := doc.Fields["payloads"].(map[string]interface{}); ok {
			if payload, ok := payloads[service]; ok {
				return c.JSON(payload)
			}
		}

		uniqueKeys := doc.UniqueKeys()
		f, ok := s.deps.Catalog.Catalog().Flavor(service, flavor)
		if !ok || f.Template == nil {
			return c.JSON(fiber.Map{
				"service":    service,
				"flavor":     flavor,
				"uniqueKeys": uniqueKeys,
			})
		}
		timestamp, _ := doc.Fields["timestamp"].(string)
		ctx := generateresponse.RenderContext(uniqueKeys, service, flavor, timestamp)
		return c.JSON(s.deps.Renderer.Render(f.Template, ctx))
	}

	return errors.NewNotFoundError("No response selected for this service", "service: "+service+", userId: "+userID)
}

func selectedFlavor(doc storage.Document, service string) (string, bool) {
	switch responses := doc.Fields["responses"].(type) {
	case map[string]interface{}:
		v, ok := responses[service].(string)
		return v, ok && v != ""
	case map[string]string:
		v, ok := responses[service]
		return v, ok && v != ""
	}
	return "", false
}
