package hierarchy

// Declaration is one entry of the host's global script class list.
type Declaration struct {
	Name string
	// OriginHint may be OriginNone, in which case the origin is inferred from LoadPath.
	OriginHint Origin
	// Base is the declared base: a class name or a script load path.
	Base     string
	LoadPath string
}

// NativeClass is one entry of the host's native class enumeration.
type NativeClass struct {
	Name         string
	BaseName     string
	Instantiable bool
	MemberCount  int
}

// Host is the set of reflection primitives the embedding engine provides.
// All calls are synchronous. Objects are opaque to the registry.
type Host interface {
	// EnumerateDeclaredClasses lists every scripted class the host knows about.
	EnumerateDeclaredClasses() []Declaration
	// EnumerateNativeClasses lists the native class database.
	EnumerateNativeClasses() []NativeClass
	// LoadScriptedDescriptor loads the descriptor stored at path.
	LoadScriptedDescriptor(path string) (ClassDescriptor, error)
	// GetRuntimeClassName returns the native class an object was instantiated as.
	GetRuntimeClassName(obj any) (string, bool)
	// GetDeclaredScriptName returns the scripted class attached to an object, if any.
	GetDeclaredScriptName(obj any) (string, bool)
}
