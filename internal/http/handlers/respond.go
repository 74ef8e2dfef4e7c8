package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mebellar/internal/domain"
	applog "mebellar/internal/log"
)

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case domain.IsFieldErrors(err):
		return fiber.StatusUnprocessableEntity
	case domain.IsNotFound(err):
		return fiber.StatusNotFound
	case domain.IsValidation(err):
		return fiber.StatusBadRequest
	case domain.IsUpstream(err):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// invalid reports a client mistake the form can be redrawn for.
func invalid(err error) bool {
	return domain.IsFieldErrors(err) || domain.IsValidation(err)
}

type errorBody struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

func describe(err error) errorBody {
	return errorBody{Code: domain.CodeOf(err), Field: domain.FieldOf(err), Message: err.Error()}
}

// fail writes the error envelope. Field batches list every entry under
// "errors"; anything outside the taxonomy is logged and reported without
// detail.
func fail(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		applog.Error(c, "api.error", err, nil)
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": "internal error",
			"error":   errorBody{Code: "INTERNAL"},
		})
	}
	if status == fiber.StatusBadGateway {
		applog.Error(c, "api.upstream", err, nil)
	}

	body := fiber.Map{"success": false, "message": err.Error()}
	var batch domain.FieldErrors
	if errors.As(err, &batch) {
		list := make([]errorBody, len(batch))
		for i, e := range batch {
			list[i] = describe(e)
		}
		body["message"] = "specs are invalid"
		body["error"] = errorBody{Code: domain.CodeValidation}
		body["errors"] = list
	} else {
		eb := describe(err)
		eb.Message = ""
		body["error"] = eb
	}
	return c.Status(status).JSON(body)
}

func denied(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": msg, "error": errorBody{Code: code}})
}

// decodeJSON reads the request body into v and reports decoding problems
// as validation errors.
func decodeJSON(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return &domain.ValidationError{Field: "body", Message: "JSON body required"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		if domain.IsTaxonomy(err) {
			return err
		}
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return &domain.ValidationError{Field: te.Field, Message: "expected " + te.Type.String()}
		}
		return &domain.ValidationError{Field: "body", Message: "malformed JSON"}
	}
	return nil
}

// lang picks the display language: ?lang=, then Accept-Language, then def.
func lang(c *fiber.Ctx, def domain.Lang) domain.Lang {
	if q := strings.TrimSpace(c.Query("lang")); q != "" {
		return domain.MatchLang(q)
	}
	if h := c.Get(fiber.HeaderAcceptLanguage); h != "" {
		return domain.MatchLang(h)
	}
	if def == "" {
		return domain.LangUZ
	}
	return def
}
