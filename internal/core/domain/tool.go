package domain

// ToolInvocation describes one run of a jar-packaged tool: java <JvmArgs> -jar <Jar> <Args>.
type ToolInvocation struct {
	// Name labels the invocation in logs.
	Name string
	// Jar is the executable tool jar.
	Jar string
	// Classpath lists additional jars; when set the tool runs with -cp instead of -jar.
	Classpath []string
	// MainClass is required when Classpath is set.
	MainClass string
	JvmArgs   []string
	Args      []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// LogFile, when set, receives the tool's combined output.
	LogFile string
}

// ResolvedTool is a locally available artifact and its runtime dependencies.
type ResolvedTool struct {
	Coordinate Coordinate
	// Path is the local file of the artifact.
	Path string
	// Dependencies are local files of runtime dependencies declared by the artifact's POM.
	Dependencies []string
	// MainClass is read from the jar manifest when present.
	MainClass string
}
