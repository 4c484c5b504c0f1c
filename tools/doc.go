// Package tools defines tool contracts and the FAQ tools the model may call.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, confirmation flag, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Data tools: query_regulations, query_student_data, query_calendar, current_datetime.
//   - Invariants: handlers never modify source data; bad input and empty
//     matches come back as explanatory text rather than errors.
package tools
