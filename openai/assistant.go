package openai

// Assistant represents an assistant object
type Assistant struct {
	ID             string            `json:"id"`
	Object         string            `json:"object"`
	CreatedAt      int64             `json:"created_at"`
	Name           *string           `json:"name,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Model          string            `json:"model"`
	Instructions   *string           `json:"instructions,omitempty"`
	Tools          []AssistantTool   `json:"tools"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
}

// AssistantRequest is the body of a create assistant call
type AssistantRequest struct {
	Model          string            `json:"model"`
	Name           *string           `json:"name,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Instructions   *string           `json:"instructions,omitempty"`
	Tools          []AssistantTool   `json:"tools,omitempty"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
}

// ModifyAssistantRequest is the body of a modify assistant call. Only set
// fields are changed.
type ModifyAssistantRequest struct {
	Model          string            `json:"model,omitempty"`
	Name           *string           `json:"name,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Instructions   *string           `json:"instructions,omitempty"`
	Tools          []AssistantTool   `json:"tools,omitempty"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
}

// AssistantFunction describes a function an assistant may call
type AssistantFunction = FunctionDefinition

// AssistantTool is a tool enabled on an assistant
type AssistantTool struct {
	Type       string             `json:"type"`
	Function   *AssistantFunction `json:"function,omitempty"`
	FileSearch *FileSearchOptions `json:"file_search,omitempty"`
}

// FileSearchOptions tunes the file_search tool
type FileSearchOptions struct {
	MaxNumResults *int `json:"max_num_results,omitempty"`
}

// CodeInterpreterTool returns the code_interpreter tool
func CodeInterpreterTool() AssistantTool {
	return AssistantTool{Type: ToolTypeCodeInterpreter}
}

// FileSearchTool returns the file_search tool
func FileSearchTool() AssistantTool {
	return AssistantTool{Type: ToolTypeFileSearch}
}

// FunctionTool returns a function tool for fn
func FunctionTool(fn AssistantFunction) AssistantTool {
	return AssistantTool{Type: ToolTypeFunction, Function: &fn}
}

// ToolResources holds the files and vector stores available to tools
type ToolResources struct {
	CodeInterpreter *CodeInterpreterResources `json:"code_interpreter,omitempty"`
	FileSearch      *FileSearchResources      `json:"file_search,omitempty"`
}

// CodeInterpreterResources lists files the code interpreter can read
type CodeInterpreterResources struct {
	FileIDs []string `json:"file_ids,omitempty"`
}

// FileSearchResources lists vector stores file_search can query
type FileSearchResources struct {
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}
