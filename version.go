package shaderscene

// Version is the module version reported by the CLI and the MCP server.
const Version = "0.3.0"
