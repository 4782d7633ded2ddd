// Package loader finds, compiles and caches template files, and provides
// the include capability that lets templates render each other.
//
// Names starting with "./" or "../" resolve against the directory of the
// including template. Other relative names resolve against the root
// directory, then each directory of the search path in order. A name
// without an extension gets the default one.
package loader
