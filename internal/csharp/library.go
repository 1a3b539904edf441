package csharp

import "strings"

// Library names an HTTP client template set.
type Library string

const (
	RestSharp  Library = "restsharp"
	HTTPClient Library = "httpclient"
)

// Libraries returns the supported libraries in listing order.
func Libraries() []string { return []string{string(RestSharp), string(HTTPClient)} }

// Capabilities is the immutable feature record of a library.
type Capabilities struct {
	// TemplateFlag is the boolean switched on in the template context.
	TemplateFlag          string
	NeedsCustomHTTPMethod bool
	NeedsURIBuilder       bool
	SupportsAsync         bool
	// FileType is the C# type binary parameters map to.
	FileType    string
	Description string
}

var capabilities = map[Library]Capabilities{
	RestSharp: {
		TemplateFlag:          "useRestSharp",
		NeedsCustomHTTPMethod: true,
		SupportsAsync:         true,
		FileType:              "System.IO.Stream",
		Description:           "RestSharp (https://github.com/restsharp/RestSharp)",
	},
	HTTPClient: {
		TemplateFlag:    "useHttpClient",
		NeedsURIBuilder: true,
		SupportsAsync:   true,
		FileType:        "FileParameter",
		Description:     "HttpClient (https://docs.microsoft.com/en-us/dotnet/api/system.net.http.httpclient)",
	},
}

// ParseLibrary validates a library name. Empty selects restsharp.
func ParseLibrary(name string) (Library, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RestSharp, nil
	}
	lib := Library(name)
	if _, ok := capabilities[lib]; !ok {
		return "", &ConfigError{Code: InvalidLibrary, Option: "library", Value: name, Allowed: Libraries()}
	}
	return lib, nil
}

// Capabilities returns the feature record of l.
func (l Library) Capabilities() Capabilities { return capabilities[l] }
