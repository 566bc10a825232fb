package cpu

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/synvm/io"
)

const (
	R0 = REGISTER_BASE + 0
	R1 = REGISTER_BASE + 1
	R2 = REGISTER_BASE + 2
)

// runImage runs an image to completion, with optional console input.
func runImage(image []uint16, input string, setup func(cpu *Cpu)) (cpu *Cpu, output string, err error) {
	cpu = NewCpu(image)

	tape_output := &bytes.Buffer{}
	tape := &io.Tape{Output: tape_output, Input: strings.NewReader(input)}
	cpu.Output = tape
	cpu.Input = tape

	if setup != nil {
		setup(cpu)
	}

	err = cpu.Run()
	output = tape_output.String()

	return
}

func TestCpuHello(t *testing.T) {
	assert := assert.New(t)

	cpu, output, err := runImage([]uint16{19, 72, 19, 101, 19, 108, 19, 108, 19, 111, 0}, "", nil)
	assert.NoError(err)
	assert.Equal("Hello", output)
	assert.Equal(STATE_HALTED, cpu.State)
	assert.Equal(10, cpu.Ip)
	assert.Equal(6, cpu.Ticks)
}

func TestCpuAddOut(t *testing.T) {
	assert := assert.New(t)

	cpu, output, err := runImage([]uint16{9, 32768, 32769, 4, 19, 32768, 0}, "", func(cpu *Cpu) {
		cpu.Register[1] = 60
	})
	assert.NoError(err)
	assert.Equal(string([]byte{64}), output)
	assert.Equal(uint16(64), cpu.Register[0])
	assert.Equal(uint16(60), cpu.Register[1])
}

func TestCpuHaltOnly(t *testing.T) {
	assert := assert.New(t)

	cpu, output, err := runImage([]uint16{0}, "", nil)
	assert.NoError(err)
	assert.Empty(output)
	assert.Equal([REGISTER_COUNT]uint16{}, cpu.Register)
	assert.True(cpu.Stack.Empty())
	assert.Equal(0, cpu.Ip)
	assert.Equal(STATE_HALTED, cpu.State)

	// Halted stays halted.
	assert.ErrorIs(cpu.Tick(), ErrHalted)
	assert.Equal(1, cpu.Ticks)
}

func TestCpuHaltIgnoresState(t *testing.T) {
	assert := assert.New(t)

	cpu, _, err := runImage([]uint16{0, 22, 22}, "", func(cpu *Cpu) {
		cpu.Stack.Push(3)
		cpu.Register[7] = 0x7fff
	})
	assert.NoError(err)
	assert.Equal(STATE_HALTED, cpu.State)
	assert.Equal(1, cpu.Stack.Depth())
}

func TestCpuAddWrap(t *testing.T) {
	assert := assert.New(t)

	cpu, _, err := runImage([]uint16{9, R0, 32767, 2, 0}, "", nil)
	assert.NoError(err)
	assert.Equal(uint16(1), cpu.Register[0])
}

func TestCpuFallThrough(t *testing.T) {
	table := [](struct {
		name  string
		image []uint16
		input string
		setup func(cpu *Cpu)
	}){
		{"set", []uint16{1, R0, 5}, "", nil},
		{"push", []uint16{2, 5}, "", nil},
		{"pop", []uint16{3, R0}, "", func(cpu *Cpu) { cpu.Stack.Push(9) }},
		{"eq", []uint16{4, R0, 7, 3}, "", nil},
		{"gt", []uint16{5, R0, 7, 3}, "", nil},
		{"jt", []uint16{7, 0, 99}, "", nil},
		{"jf", []uint16{8, 1, 99}, "", nil},
		{"add", []uint16{9, R0, 7, 3}, "", nil},
		{"mult", []uint16{10, R0, 7, 3}, "", nil},
		{"mod", []uint16{11, R0, 7, 3}, "", nil},
		{"and", []uint16{12, R0, 7, 3}, "", nil},
		{"or", []uint16{13, R0, 7, 3}, "", nil},
		{"not", []uint16{14, R0, 7}, "", nil},
		{"rmem", []uint16{15, R0, 1}, "", nil},
		{"wmem", []uint16{16, 5, 9}, "", nil},
		{"out", []uint16{19, 'A'}, "", nil},
		{"in", []uint16{20, R0}, "x\n", nil},
		{"noop", []uint16{21}, "", nil},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			image := append(entry.image, make([]uint16, 8)...)
			cpu := NewCpu(image)
			tape := &io.Tape{Output: &bytes.Buffer{}, Input: strings.NewReader(entry.input)}
			cpu.Output = tape
			cpu.Input = tape
			if entry.setup != nil {
				entry.setup(cpu)
			}

			op := CodeOp(image[0])
			arity, err := op.Arity()
			assert.NoError(err)

			err = cpu.Tick()
			assert.NoError(err)
			assert.Equal(1+arity, cpu.Ip)
			assert.Equal(STATE_RUNNING, cpu.State)
		})
	}
}

func TestCpuCompare(t *testing.T) {
	values := []uint16{0, 1, 2, 100, 16384, 32766, 32767}

	for _, op := range []CodeOp{OP_EQ, OP_GT} {
		for _, b := range values {
			for _, c := range values {
				assert := assert.New(t)

				cpu, _, err := runImage([]uint16{uint16(op), R0, R1, c, 0}, "", func(cpu *Cpu) {
					cpu.Register[0] = 0x1234
					cpu.Register[1] = b
				})
				assert.NoError(err)

				var expected uint16
				if (op == OP_EQ && b == c) || (op == OP_GT && b > c) {
					expected = 1
				}
				assert.Equal(expected, cpu.Register[0], "%v %v %v", op, b, c)
			}
		}
	}
}

func TestCpuAlu(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op       CodeOp
		b, c     uint16
		expected uint16
	}){
		{OP_ADD, 32767, 2, 1},
		{OP_ADD, 16384, 16384, 0},
		{OP_ADD, 10, 20, 30},
		{OP_MULT, 2, 3, 6},
		{OP_MULT, 32767, 32767, 1},
		{OP_MULT, 16384, 2, 0},
		{OP_MOD, 10, 3, 1},
		{OP_MOD, 3, 10, 3},
		{OP_MOD, 32767, 32767, 0},
		{OP_AND, 0x7f0f, 0x00ff, 0x000f},
		{OP_AND, 0x7fff, 0x7fff, 0x7fff},
		{OP_OR, 0x7f00, 0x00ff, 0x7fff},
		{OP_OR, 0, 0, 0},
	}

	for _, entry := range table {
		cpu, _, err := runImage([]uint16{uint16(entry.op), R2, entry.b, entry.c, 0}, "", nil)
		assert.NoError(err)
		assert.Equal(entry.expected, cpu.Register[2], "%v %v %v", entry.op, entry.b, entry.c)
	}
}

func TestCpuNot(t *testing.T) {
	assert := assert.New(t)

	table := map[uint16]uint16{
		0:      0x7fff,
		0x7fff: 0,
		0x5555: 0x2aaa,
	}

	for in, expected := range table {
		cpu, _, err := runImage([]uint16{14, R0, in, 0}, "", nil)
		assert.NoError(err)
		assert.Equal(expected, cpu.Register[0])
	}
}

func TestCpuJumps(t *testing.T) {
	assert := assert.New(t)

	// jmp over an out
	_, output, err := runImage([]uint16{6, 4, 19, 'X', 19, 'Y', 0}, "", nil)
	assert.NoError(err)
	assert.Equal("Y", output)

	// jmp through a register
	_, output, err = runImage([]uint16{6, R0, 19, 'X', 19, 'Y', 0}, "", func(cpu *Cpu) {
		cpu.Register[0] = 4
	})
	assert.NoError(err)
	assert.Equal("Y", output)

	// jt taken, jf not taken
	_, output, err = runImage([]uint16{7, 1, 5, 19, 'X', 8, 1, 10, 19, 'Y', 0}, "", nil)
	assert.NoError(err)
	assert.Equal("Y", output)

	// jf taken, jt not taken
	_, output, err = runImage([]uint16{8, 0, 5, 19, 'X', 7, 0, 10, 19, 'Y', 0}, "", nil)
	assert.NoError(err)
	assert.Equal("Y", output)
}

func TestCpuCallRet(t *testing.T) {
	assert := assert.New(t)

	image := []uint16{
		17, 6, // 0: call 6
		19, 'A', // 2: out 'A'
		0,       // 4: halt
		21,      // 5: noop
		19, 'B', // 6: out 'B'
		18, // 8: ret
	}

	cpu := NewCpu(image)
	output := &bytes.Buffer{}
	cpu.Output = &io.Tape{Output: output}

	assert.NoError(cpu.Tick())
	assert.Equal(6, cpu.Ip)
	top, ok := cpu.Stack.Peek()
	assert.True(ok)
	assert.Equal(uint16(2), top)

	assert.NoError(cpu.Run())
	assert.Equal("BA", output.String())
	assert.True(cpu.Stack.Empty())
	assert.Equal(4, cpu.Ip)
}

func TestCpuPushPop(t *testing.T) {
	assert := assert.New(t)

	cpu, _, err := runImage([]uint16{2, 10, 2, R1, 3, R0, 3, R2, 0}, "", func(cpu *Cpu) {
		cpu.Register[1] = 20
	})
	assert.NoError(err)
	assert.Equal(uint16(20), cpu.Register[0])
	assert.Equal(uint16(10), cpu.Register[2])
	assert.True(cpu.Stack.Empty())
}

func TestCpuMemory(t *testing.T) {
	assert := assert.New(t)

	// rmem masks raw operand encodings.
	cpu, _, err := runImage([]uint16{15, R0, 4, 0, 32769}, "", nil)
	assert.NoError(err)
	assert.Equal(uint16(1), cpu.Register[0])

	// wmem can rewrite the program.
	cpu, _, err = runImage([]uint16{16, 3, 0, 21, 21}, "", nil)
	assert.NoError(err)
	assert.Equal(3, cpu.Ip)
	assert.Equal(2, cpu.Ticks)
	assert.Equal(uint16(0), cpu.Memory[3])

	// wmem through registers
	cpu, _, err = runImage([]uint16{16, R0, R1, 0, 0, 0}, "", func(cpu *Cpu) {
		cpu.Register[0] = 5
		cpu.Register[1] = 0x1234
	})
	assert.NoError(err)
	assert.Equal(uint16(0x1234), cpu.Memory[5])
}

func TestCpuImageIsCopied(t *testing.T) {
	assert := assert.New(t)

	image := []uint16{16, 3, 0, 21, 21}
	_, _, err := runImage(image, "", nil)
	assert.NoError(err)
	assert.Equal(uint16(21), image[3])
}

func TestCpuIn(t *testing.T) {
	assert := assert.New(t)

	cpu, _, err := runImage([]uint16{20, R0, 20, R1, 20, R2, 0}, "hi\nthere\n", nil)
	assert.NoError(err)
	assert.Equal(uint16('h'), cpu.Register[0])
	assert.Equal(uint16('i'), cpu.Register[1])
	assert.Equal(uint16('\n'), cpu.Register[2])
}

func TestCpuEcho(t *testing.T) {
	assert := assert.New(t)

	// 0: in r0; 2: out r0; 4: eq r1 r0 '\n'; 8: jf r1 0; 11: halt
	image := []uint16{20, R0, 19, R0, 4, R1, R0, '\n', 8, R1, 0, 0}

	_, output, err := runImage(image, "echo me\nnot me\n", nil)
	assert.NoError(err)
	assert.Equal("echo me\n", output)
}

func TestCpuFaults(t *testing.T) {
	table := [](struct {
		name  string
		image []uint16
		fault error
		ip    int
	}){
		{"invalid-source", []uint16{1, R0, 40000, 0}, ErrInvalidOperand, 0},
		{"invalid-dest-literal", []uint16{1, 5, 5, 0}, ErrInvalidOperand, 0},
		{"invalid-dest-high", []uint16{9, 32776, 1, 1, 0}, ErrInvalidOperand, 0},
		{"invalid-alu-arg", []uint16{9, R0, 1, 40000, 0}, ErrInvalidOperand, 0},
		{"invalid-jump", []uint16{21, 6, 40000}, ErrInvalidOperand, 1},
		{"invalid-push", []uint16{2, 65535}, ErrInvalidOperand, 0},
		{"unknown-opcode", []uint16{21, 22}, ErrUnknownOpcode, 1},
		{"unknown-opcode-high", []uint16{0xffff}, ErrUnknownOpcode, 0},
		{"pop-empty", []uint16{3, R0, 0}, ErrStackUnderflow, 0},
		{"ret-empty", []uint16{18}, ErrStackUnderflow, 0},
		{"ran-off-end", []uint16{21}, ErrOutOfBounds, 1},
		{"empty-image", []uint16{}, ErrOutOfBounds, 0},
		{"truncated", []uint16{9, R0}, ErrOutOfBounds, 0},
		{"jump-away", []uint16{6, 1000}, ErrOutOfBounds, 1000},
		{"rmem-oob", []uint16{15, R0, 100, 0}, ErrOutOfBounds, 0},
		{"wmem-oob", []uint16{16, 100, 1, 0}, ErrOutOfBounds, 0},
		{"mod-zero", []uint16{11, R0, 1, 0, 0}, ErrDivideByZero, 0},
		{"in-exhausted", []uint16{20, R0, 0}, ErrInputExhausted, 0},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu, _, err := runImage(entry.image, "", func(cpu *Cpu) {
				cpu.Register[0] = 0x0aaa
			})
			assert.ErrorIs(err, entry.fault)

			var fault *ErrFault
			if assert.ErrorAs(err, &fault) {
				assert.Equal(entry.ip, fault.Ip)
			}

			assert.Equal(STATE_FAULTED, cpu.State)
			assert.Equal(entry.ip, cpu.Ip)
			assert.Equal(uint16(0x0aaa), cpu.Register[0])

			// Faulted stays faulted.
			assert.Equal(err, cpu.Tick())
		})
	}
}

func TestCpuFaultNoMutation(t *testing.T) {
	assert := assert.New(t)

	// Stack is untouched by a faulting push, memory by a faulting wmem.
	cpu, _, err := runImage([]uint16{16, 0, 40000}, "", func(cpu *Cpu) {
		cpu.Stack.Push(7)
	})
	assert.ErrorIs(err, ErrInvalidOperand)
	assert.Equal([]uint16{7}, cpu.Stack.Data)
	assert.Equal(uint16(16), cpu.Memory[0])

	// Call with a bad target does not push.
	cpu, _, err = runImage([]uint16{17, 40000}, "", nil)
	assert.ErrorIs(err, ErrInvalidOperand)
	assert.True(cpu.Stack.Empty())
}

func TestCpuFaultCode(t *testing.T) {
	assert := assert.New(t)

	_, _, err := runImage([]uint16{22}, "", nil)
	var fault *ErrFault
	assert.ErrorAs(err, &fault)
	assert.NotNil(fault.Code)
	assert.Equal(uint16(22), fault.Code.Word)

	_, _, err = runImage([]uint16{21}, "", nil)
	assert.ErrorAs(err, &fault)
	assert.Nil(fault.Code)
	assert.Contains(err.Error(), "0x0001")

	_, _, err = runImage([]uint16{3, R1}, "", nil)
	assert.ErrorAs(err, &fault)
	assert.Contains(err.Error(), "pop r1")
}

func TestCpuExecuteArity(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu([]uint16{0})
	err := cpu.Execute(MakeCode(OP_ADD, R0, 1))
	assert.ErrorIs(err, ErrInvalidOperand)
	assert.Equal(STATE_FAULTED, cpu.State)
}

func TestCpuExecuteStopped(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu([]uint16{0})
	assert.ErrorIs(cpu.Tick(), ErrHalted)

	err := cpu.Execute(MakeCode(OP_SET, R0, 5))
	assert.ErrorIs(err, ErrHalted)
	assert.Equal(STATE_HALTED, cpu.State)
	assert.Equal(uint16(0), cpu.Register[0])
	assert.Equal(0, cpu.Ip)
	assert.Equal(1, cpu.Ticks)

	cpu = NewCpu([]uint16{18})
	fault := cpu.Tick()
	assert.ErrorIs(fault, ErrStackUnderflow)

	err = cpu.Execute(MakeCode(OP_PUSH, 7))
	assert.Equal(fault, err)
	assert.True(cpu.Stack.Empty())
	assert.Equal(0, cpu.Ip)
}

func TestCpuNilChannels(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu([]uint16{19, 'A', 20, R0})
	assert.NoError(cpu.Tick())
	assert.ErrorIs(cpu.Tick(), ErrInputExhausted)
}

func TestCpuReset(t *testing.T) {
	assert := assert.New(t)

	cpu, _, err := runImage([]uint16{1, R0, 5, 2, 5, 0}, "", nil)
	assert.NoError(err)

	cpu.Reset([]uint16{21, 0})
	assert.Equal(STATE_RUNNING, cpu.State)
	assert.Equal(0, cpu.Ip)
	assert.Equal(0, cpu.Ticks)
	assert.Equal(uint16(0), cpu.Register[0])
	assert.True(cpu.Stack.Empty())
	assert.Nil(cpu.Fault)
	assert.Equal(2, cpu.Memory.Len())

	assert.NoError(cpu.Run())
	assert.Equal(1, cpu.Ip)
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu([]uint16{0})
	cpu.Register[3] = 0x1abc
	cpu.Stack.Push(0x22)

	text := cpu.String()
	assert.Contains(text, "state: running")
	assert.Contains(text, "   r3: 1ABC")
	assert.Contains(text, "stack: 0022")
	assert.Contains(text, "depth: 1")
}

func TestCpuDefines(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(nil)
	defines := map[string]string{}
	for key, value := range cpu.Defines() {
		defines[key] = value
	}

	assert.Equal("32768", defines["REGISTER_BASE"])
	assert.Equal("8", defines["REGISTER_COUNT"])
	assert.Equal("0x7fff", defines["WORD_MASK"])
}
