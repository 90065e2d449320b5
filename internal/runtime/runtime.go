package runtime

// The module behind the "\0commonjsHelpers" id. Every converted module
// imports it as a namespace, so its export names are part of the output
// format and must not change.
const Code = `
export var commonjsGlobal = typeof window !== 'undefined' ? window : typeof global !== 'undefined' ? global : typeof self !== 'undefined' ? self : {};

export function unwrapExports (x) {
	return x && x.__esModule ? x['default'] : x;
}

export function createCommonjsModule(fn, module) {
	return module = { exports: {} }, fn(module, module.exports), module.exports;
}`

// The names exported by "Code"
const (
	GlobalName = "commonjsGlobal"
	UnwrapName = "unwrapExports"
	CreateName = "createCommonjsModule"
)
