package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/llm"
)

// promptParsingStops cuts free-form replies off at fence markers so the
// repair pass sees a single JSON object.
var promptParsingStops = []string{"```", "```json", "```\n", "\n\n\n"}

// CallAndDecode performs one LLM call for the given method and decodes the
// reply into out.
//
// json_schema: the schema is passed as a structured-output constraint, the
// reply is validated locally against the same schema and decoded directly
// without a repair pass. prompt_parsing: the reply goes through fence/brace JSON
// extraction and a best-effort repair before decoding.
func CallAndDecode(
	ctx context.Context,
	client llm.ChatClient,
	req llm.ChatRequest,
	method constants.ExtractionMethod,
	schema map[string]any,
	out any,
	log *slog.Logger,
) error {
	if log == nil {
		log = slog.Default()
	}

	if method == constants.MethodJSONSchema {
		req.Format = schema
	} else {
		req.Stop = promptParsingStops
	}

	content, err := client.Chat(ctx, req)
	if err != nil {
		return fmt.Errorf("llm call (%s): %w", method, err)
	}

	if method == constants.MethodJSONSchema {
		if err := llm.ValidateJSONAgainstSchema(schema, []byte(content)); err != nil {
			log.Warn("processor.decode.schema_mismatch", "method", method, "error", err)
			return fmt.Errorf("schema validation: %w", err)
		}
		if err := json.Unmarshal([]byte(content), out); err != nil {
			return fmt.Errorf("decode structured output: %w", err)
		}
		return nil
	}

	jsonStr := llm.ExtractJSON(content)
	if jsonStr == "" {
		return fmt.Errorf("no JSON found in response")
	}
	_, parsed, ok := llm.ParseWithRepair(jsonStr)
	if !ok {
		log.Warn("processor.decode.repair_failed", "method", method)
		return fmt.Errorf("unparseable JSON in response")
	}
	if err := json.Unmarshal(parsed, out); err != nil {
		return fmt.Errorf("decode repaired output: %w", err)
	}
	return nil
}
