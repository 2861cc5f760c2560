package api

import (
	"io"
	"mime"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

const maxBodySize = 64 * 1024 // 64 KiB

// sonicSerializer implements echo.JSONSerializer on top of sonic.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	if err := sonic.ConfigStd.NewDecoder(lr).Decode(i); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}

// decodeJSON requires a JSON content type and decodes the body into v.
func decodeJSON(c echo.Context, v any) error {
	mediaType, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if err != nil || mediaType != echo.MIMEApplicationJSON {
		return badRequest("JSON body required")
	}
	if c.Request().ContentLength == 0 || c.Request().Body == nil || c.Request().Body == http.NoBody {
		return badRequest("JSON body required")
	}
	return c.Echo().JSONSerializer.Deserialize(c, v)
}
