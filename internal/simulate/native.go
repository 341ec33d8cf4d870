package simulate

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// nativeBinding is the dlopen'd SPICE shared library binding. It mirrors
// the public C ABI a simulator like ngspice exposes as a shared library
// (ngSpice_Init/ngSpice_Circ/ngSpice_Command/ngSpice_AllVecs/
// ngGet_Vec_Info): no cgo, so every entry point is bound at runtime with
// purego.RegisterLibFunc and every callback is a purego.NewCallback
// trampoline, following the mutex-guarded-singleton-handle,
// owned-buffer-copy discipline of a cgo-based native wrapper (adapted
// here to a cgo-free binding since spec.md §6 calls for a runtime
// dlopen path, not a compile-time link).
type nativeBinding struct {
	handle uintptr

	command  func(command string) int32
	circuit  func(lines uintptr) int32
	allVecs  func(plotName string) uintptr
	curPlot  func() uintptr
	vecInfo  func(vecName string) uintptr
	initFunc func(printfcn, statfcn, exitfcn, sdata, sinitdata, bgrun, userData uintptr) int32

	mu       sync.Mutex
	messages []string
	halted   bool
}

func openNative(libraryPath string) (*nativeBinding, error) {
	handle, err := purego.Dlopen(libraryPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", libraryPath, err)
	}

	nb := &nativeBinding{handle: handle}
	purego.RegisterLibFunc(&nb.command, handle, "ngSpice_Command")
	purego.RegisterLibFunc(&nb.circuit, handle, "ngSpice_Circ")
	purego.RegisterLibFunc(&nb.allVecs, handle, "ngSpice_AllVecs")
	purego.RegisterLibFunc(&nb.curPlot, handle, "ngSpice_CurPlot")
	purego.RegisterLibFunc(&nb.vecInfo, handle, "ngGet_Vec_Info")
	purego.RegisterLibFunc(&nb.initFunc, handle, "ngSpice_Init")

	printfcn := purego.NewCallback(func(message uintptr, id int32, userdata uintptr) int32 {
		nb.addMessage(readCString(message))
		return 0
	})
	statfcn := purego.NewCallback(func(message uintptr, id int32, userdata uintptr) int32 {
		return 0
	})
	exitfcn := purego.NewCallback(func(status, immediate, exitOnQuit, id int32, userdata uintptr) int32 {
		nb.mu.Lock()
		nb.halted = true
		nb.mu.Unlock()
		return 0
	})

	if rc := nb.initFunc(printfcn, statfcn, exitfcn, 0, 0, 0, 0); rc != 0 {
		return nil, fmt.Errorf("ngSpice_Init returned %d", rc)
	}
	return nb, nil
}

func (nb *nativeBinding) addMessage(msg string) {
	nb.mu.Lock()
	nb.messages = append(nb.messages, msg)
	nb.mu.Unlock()
}

func (nb *nativeBinding) drainMessages() []string {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	out := make([]string, len(nb.messages))
	copy(out, nb.messages)
	nb.messages = nb.messages[:0]
	return out
}

func (nb *nativeBinding) LoadNetlist(spiceText string) ([]string, error) {
	lines := strings.Split(spiceText, "\n")
	arr, keepAlive := marshalCStringArray(lines)
	defer keepAlive()

	nb.drainMessages()
	if rc := nb.circuit(arr); rc != 0 {
		return nb.drainMessages(), fmt.Errorf("ngSpice_Circ returned %d", rc)
	}
	return nb.drainMessages(), nil
}

func (nb *nativeBinding) Run(req RunRequest) (Result, []string, error) {
	cmd, err := analysisCommand(req)
	if err != nil {
		return Result{}, nil, err
	}
	nb.drainMessages()

	if rc := nb.command(cmd); rc != 0 {
		return Result{}, nb.drainMessages(), fmt.Errorf("command %q returned %d", cmd, rc)
	}

	plotName := readCString(nb.curPlot())
	vecNames := readCStringArray(nb.allVecs(plotName))

	vectors := make(map[string][]float64, len(vecNames))
	for _, name := range vecNames {
		infoPtr := nb.vecInfo(plotName + "." + name)
		if infoPtr == 0 {
			continue
		}
		vectors[name] = readVectorData(infoPtr)
	}
	return buildResult(vectors, sweepVectorName(req)), nb.drainMessages(), nil
}

func (nb *nativeBinding) HealthCheck() (string, bool) {
	nb.drainMessages()
	if rc := nb.command("version"); rc != 0 {
		return "", false
	}
	msgs := nb.drainMessages()
	if len(msgs) == 0 {
		return "", false
	}
	return strings.Join(msgs, " "), true
}

func (nb *nativeBinding) Close() error {
	nb.mu.Lock()
	halted := nb.halted
	nb.mu.Unlock()
	if halted {
		return nil
	}
	return purego.Dlclose(nb.handle)
}

// cVectorInfo mirrors ngspice's vector_info struct layout on a 64-bit
// build: char *v_name; int v_type; short v_flags; (padding); double
// *v_realdata; ngcomplex_t *v_compdata; int v_length; (trailing padding).
type cVectorInfo struct {
	Name     uintptr
	VType    int32
	VFlags   int16
	_        [2]byte
	RealData uintptr
	CompData uintptr
	Length   int32
	_        [4]byte
}

func readVectorData(ptr uintptr) []float64 {
	info := (*cVectorInfo)(unsafe.Pointer(ptr))
	if info.RealData == 0 || info.Length <= 0 {
		return nil
	}
	data := unsafe.Slice((*float64)(unsafe.Pointer(info.RealData)), int(info.Length))
	owned := make([]float64, len(data))
	copy(owned, data)
	return owned
}

func readCString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var buf []byte
	for i := uintptr(0); ; i++ {
		b := *(*byte)(unsafe.Pointer(ptr + i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

func readCStringArray(ptr uintptr) []string {
	if ptr == 0 {
		return nil
	}
	const ptrSize = unsafe.Sizeof(uintptr(0))
	var out []string
	for i := uintptr(0); ; i++ {
		elem := *(*uintptr)(unsafe.Pointer(ptr + i*ptrSize))
		if elem == 0 {
			break
		}
		out = append(out, readCString(elem))
	}
	return out
}

// marshalCStringArray builds a null-terminated char** of null-terminated
// C strings from lines, backed entirely by Go-owned memory. The returned
// func must stay alive (via defer, called after the native call that
// consumes the pointer returns) so the backing slices are not collected
// mid-call; Go's allocator does not relocate live heap memory, so a
// pinned reference is sufficient without a C allocator.
func marshalCStringArray(lines []string) (uintptr, func()) {
	cStrings := make([][]byte, len(lines))
	for i, line := range lines {
		cStrings[i] = append([]byte(line), 0)
	}
	ptrs := make([]uintptr, len(lines)+1)
	for i, b := range cStrings {
		ptrs[i] = uintptr(unsafe.Pointer(&b[0]))
	}

	keepAlive := func() {
		runtime.KeepAlive(cStrings)
		runtime.KeepAlive(ptrs)
	}
	return uintptr(unsafe.Pointer(&ptrs[0])), keepAlive
}
