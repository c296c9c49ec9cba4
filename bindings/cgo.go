package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"
)

//export relq_open
func relq_open(definitions *C.char) C.int {
	handle, err := openDefinitions(C.GoString(definitions))
	if err != nil {
		setLastError(err)
		return -1
	}
	return C.int(handle)
}

//export relq_open_source
func relq_open_source(path *C.char) C.int {
	handle, err := openSource(C.GoString(path))
	if err != nil {
		setLastError(err)
		return -1
	}
	return C.int(handle)
}

// relq_last_error returns the message of the last failed open. The caller
// frees it with relq_free.
//
//export relq_last_error
func relq_last_error() *C.char {
	return C.CString(getLastError())
}

//export relq_close
func relq_close(handle C.int) {
	closeHandle(int(handle))
}

// relq_execute evaluates one query and returns a JSON response. The caller
// frees it with relq_free.
//
//export relq_execute
func relq_execute(handle C.int, query *C.char) *C.char {
	resp := execute(int(handle), C.GoString(query))
	return C.CString(string(encode(resp)))
}

//export relq_free
func relq_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func main() {}
