package simulator

import (
	"testing"
	"time"

	"vonsim"
	"vonsim/internal/assemble"
)

func compile(t *testing.T, src string) *assemble.Program {
	t.Helper()
	prog, errs := assemble.Compile(src)
	if errs.HasErrors() {
		t.Fatalf("compile errors: %v", errs.Errors)
	}
	return prog
}

func drain(t *testing.T, sim *Simulator, timeout time.Duration) {
	t.Helper()
	ch := sim.StartCPU()
	deadline := time.After(timeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("StartCPU did not halt in time")
		}
	}
}

func TestLoadProgramRunsToHalt(t *testing.T) {
	prog := compile(t, "ORG 1000h\nMOV AX, 5\nADD AX, 3\nHLT\nEND\n")
	sim := New()
	sim.LoadProgram(LoadOptions{Program: prog, DataInit: DataInitClean})
	drain(t, sim, time.Second)

	state := sim.GetComputerState()
	if !state.Halted {
		t.Fatal("expected the machine to be halted after the stream closes")
	}
	if got := state.Registers["AX"].Word; got != 8 {
		t.Fatalf("AX = %d, want 8", got)
	}
}

func TestDataInitCleanRunsHelloCounter(t *testing.T) {
	prog := compile(t, "ORG 1000h\nX: DB 0\nORG 2000h\nMOV AL, X\nINC AL\nMOV X, AL\nHLT\nEND\n")
	sim := New()
	sim.LoadProgram(LoadOptions{Program: prog, DataInit: DataInitClean})
	drain(t, sim, time.Second)

	state := sim.GetComputerState()
	if got := state.Memory[0x1000]; got != 1 {
		t.Fatalf("byte at 1000h = %d, want 1 (scenario 1)", got)
	}
}

func TestInt6FeedsConsoleByte(t *testing.T) {
	prog := compile(t, "ORG 1000h\nMOV BX, 2000h\nINT 6\nHLT\nEND\n")
	sim := New()
	sim.LoadProgram(LoadOptions{Program: prog, DataInit: DataInitClean})

	ch := sim.StartCPU()
	go sim.FeedKeyboard('A')

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				goto done
			}
		case <-deadline:
			t.Fatal("INT 6 never completed")
		}
	}
done:
	state := sim.GetComputerState()
	if got := state.Memory[0x2000]; got != 'A' {
		t.Fatalf("byte at 2000h = %#02x, want 'A'", got)
	}
	if state.Devices.LastKey == nil || *state.Devices.LastKey != 'A' {
		t.Fatal("getComputerState should report the last fed key")
	}
}

func TestF10PressDispatchesHandler(t *testing.T) {
	src := "ORG 2000h\n" +
		"MOV WORD PTR [0020h], 1000h\nSTI\nLOOP1: JMP LOOP1\n" +
		"ORG 1000h\n" +
		"HANDLER: MOV DX, 99\nIRET\nEND\n"
	prog := compile(t, src)
	sim := New()
	sim.LoadProgram(LoadOptions{Program: prog, DataInit: DataInitClean})

	ch := sim.StartCPU()
	go func() {
		time.Sleep(10 * time.Millisecond)
		sim.F10Press()
		time.Sleep(10 * time.Millisecond)
		sim.Stop()
	}()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				goto done
			}
		case <-deadline:
			t.Fatal("F10 press scenario never stopped")
		}
	}
done:
	state := sim.GetComputerState()
	if got := state.Registers["DX"].Word; got != 99 {
		t.Fatalf("DX = %d, want 99 (F10's handler should have run)", got)
	}
}

func TestToggleSwitchFlipsReportedState(t *testing.T) {
	prog := compile(t, "ORG 1000h\nHLT\nEND\n")
	sim := New()
	sim.LoadProgram(LoadOptions{Program: prog, Devices: []DeviceKind{DevicePIOSwitchesLEDs}})
	sim.ToggleSwitch(3)

	state := sim.GetComputerState()
	if !state.Devices.Switches[3] {
		t.Fatal("toggling switch 3 should flip its reported state")
	}
}

func TestPrinterPrintAppendsToScreen(t *testing.T) {
	prog := compile(t, "ORG 1000h\nHLT\nEND\n")
	sim := New()
	sim.LoadProgram(LoadOptions{Program: prog, Devices: []DeviceKind{DeviceHandshakePrinter}})

	sim.hs.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'Z'))
	sim.PrinterPrint()

	state := sim.GetComputerState()
	if state.Devices.Screen != "Z" {
		t.Fatalf("screen = %q, want %q", state.Devices.Screen, "Z")
	}
}
