package emitter

import (
	"context"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/analyzer"
	"github.com/retroenv/retrosvd/internal/api"
	"github.com/retroenv/retrosvd/internal/builder"
	"github.com/retroenv/retrosvd/internal/derive"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/layout"
	"github.com/retroenv/retrosvd/internal/tree"
)

// generate runs all stages on a description document.
func generate(t *testing.T, document string) (*device.Device, *api.Output) {
	t.Helper()
	ctx := context.Background()
	logger := log.NewTestLogger(t)

	root, err := tree.Parse(strings.NewReader(document))
	assert.NoError(t, err)
	dev, err := builder.New(logger).Build(root)
	assert.NoError(t, err)
	resolved, err := derive.New(logger).Resolve(ctx, dev)
	assert.NoError(t, err)
	l, err := layout.New(logger).Compute(ctx, resolved)
	assert.NoError(t, err)
	model, err := analyzer.New(logger).Analyze(ctx, l)
	assert.NoError(t, err)

	return dev, Emit(model)
}

const testDocument = `<device>
  <name>STM32</name>
  <peripherals>
    <peripheral>
      <name>GPIOA</name>
      <baseAddress>0x48000000</baseAddress>
      <registers>
        <register>
          <name>MODER</name>
          <addressOffset>0x0</addressOffset>
          <access>read-write</access>
          <fields>
            <field>
              <name>DIR</name><bitOffset>0</bitOffset><bitWidth>1</bitWidth>
              <enumeratedValues>
                <enumeratedValue><name>Input</name><value>0</value></enumeratedValue>
                <enumeratedValue><name>Output</name><value>1</value></enumeratedValue>
              </enumeratedValues>
            </field>
            <field>
              <name>SADD0</name><bitOffset>1</bitOffset><bitWidth>1</bitWidth>
              <enumeratedValues>
                <usage>read</usage>
                <enumeratedValue><name>Disabled</name><value>0</value></enumeratedValue>
              </enumeratedValues>
            </field>
          </fields>
        </register>
        <register>
          <name>IDR</name>
          <addressOffset>0x10</addressOffset>
          <access>read-only</access>
        </register>
        <register>
          <name>ODR</name>
          <addressOffset>0x14</addressOffset>
          <access>read-write</access>
        </register>
        <register>
          <name>BSRR</name>
          <addressOffset>0x18</addressOffset>
          <access>write-only</access>
          <fields>
            <field><name>BS0</name><bitOffset>0</bitOffset><bitWidth>1</bitWidth></field>
          </fields>
        </register>
      </registers>
    </peripheral>
    <peripheral derivedFrom="GPIOA">
      <name>GPIOB</name>
      <baseAddress>0x48000400</baseAddress>
      <interrupt><name>EXTI1</name><value>7</value></interrupt>
    </peripheral>
    <peripheral>
      <name>RCC</name>
      <baseAddress>0x40021000</baseAddress>
      <interrupt><name>RCC</name><value>5</value></interrupt>
      <registers>
        <register><name>CR</name><addressOffset>0x0</addressOffset></register>
      </registers>
    </peripheral>
  </peripherals>
</device>`

//nolint:funlen // test functions can be long
func TestEmit(t *testing.T) {
	_, out := generate(t, testDocument)

	assert.Equal(t, "STM32", out.Device)
	assert.Len(t, out.Peripherals, 3)

	gpioa := out.Peripherals[0]
	assert.Equal(t, api.Singleton{Name: "GPIOA", Address: 0x48000000, BlockType: "GPIOA"}, gpioa.Singleton)
	assert.Equal(t, uint64(0x1C), gpioa.Size)

	t.Run("register block with padding", func(t *testing.T) {
		assert.Len(t, gpioa.Items, 5)
		assert.Equal(t, "MODER", gpioa.Items[0].Register.Name)
		assert.True(t, gpioa.Items[1].IsPadding())
		assert.Equal(t, uint64(4), gpioa.Items[1].Offset)
		assert.Equal(t, uint64(12), gpioa.Items[1].Size)
		assert.Equal(t, "IDR", gpioa.Items[2].Register.Name)
		assert.Equal(t, "ODR", gpioa.Items[3].Register.Name)
		assert.Equal(t, "BSRR", gpioa.Items[4].Register.Name)
	})

	t.Run("accessor shapes", func(t *testing.T) {
		idr := gpioa.Items[2].Register
		assert.True(t, idr.HasRead())
		assert.False(t, idr.HasWrite())
		assert.False(t, idr.HasModify())

		odr := gpioa.Items[3].Register
		assert.True(t, odr.HasModify())
		assert.Equal(t, uint64(0x48000014), odr.Address)
		assert.Equal(t, 0, odr.Fields)

		bsrr := gpioa.Items[4].Register
		assert.False(t, bsrr.HasRead())
		assert.Len(t, bsrr.ReadFields, 0)
		assert.Len(t, bsrr.WriteFields, 1)
		assert.Equal(t, 1, bsrr.Fields)
		assert.Nil(t, bsrr.WriteFields[0].Enum)
		assert.False(t, bsrr.WriteFields[0].RawSafe)
	})

	t.Run("exhaustive field", func(t *testing.T) {
		moder := gpioa.Items[0].Register
		dir := moder.ReadFields[0]
		assert.Equal(t, "DIR", dir.Name)
		assert.NotNil(t, dir.Enum)
		assert.True(t, dir.Enum.Exhaustive)
		assert.False(t, dir.Unmatched)

		dirWrite := moder.WriteFields[0]
		assert.True(t, dirWrite.RawSafe)
		assert.True(t, dir.Enum == dirWrite.Enum)
	})

	t.Run("partial field", func(t *testing.T) {
		moder := gpioa.Items[0].Register
		sadd := moder.ReadFields[1]
		assert.Equal(t, "SADD0", sadd.Name)
		assert.False(t, sadd.Enum.Exhaustive)
		assert.True(t, sadd.Unmatched)
		assert.Len(t, sadd.Enum.Variants, 1)

		saddWrite := moder.WriteFields[1]
		assert.Nil(t, saddWrite.Enum)
		assert.False(t, saddWrite.RawSafe)
	})

	t.Run("derived peripheral shares the block type", func(t *testing.T) {
		gpiob := out.Peripherals[1]
		assert.Equal(t, "GPIOA", gpiob.Singleton.BlockType)
		assert.Equal(t, uint64(0x48000400), gpiob.Singleton.Address)
		assert.Equal(t, uint64(0x48000414), gpiob.Items[3].Register.Address)
	})

	t.Run("enums are deduplicated", func(t *testing.T) {
		// GPIOB reuses both enums of GPIOA
		assert.Len(t, out.Enums, 2)
		assert.Equal(t, "GPIOA.MODER.DIR", out.Enums[0].Owner)
		assert.Equal(t, "GPIOA.MODER.SADD0", out.Enums[1].Owner)
	})

	t.Run("interrupts ascend", func(t *testing.T) {
		assert.Len(t, out.Interrupts, 2)
		assert.Equal(t, "RCC", out.Interrupts[0].Name)
		assert.Equal(t, 5, out.Interrupts[0].Value)
		assert.Equal(t, "EXTI1", out.Interrupts[1].Name)
	})
}

// TestEmitRoundTrip verifies that a resolved, non overlapping description
// passes all stages unchanged apart from the inserted padding.
func TestEmitRoundTrip(t *testing.T) {
	const document = `<device><name>D</name><peripherals>
      <peripheral><name>UART</name><baseAddress>0x40011000</baseAddress><registers>
        <register><name>SR</name><addressOffset>0x0</addressOffset><resetValue>0xC0</resetValue>
          <fields>
            <field><name>TXE</name><bitOffset>7</bitOffset><bitWidth>1</bitWidth></field>
            <field><name>RXNE</name><bitOffset>5</bitOffset><bitWidth>1</bitWidth></field>
          </fields>
        </register>
        <register><name>DR</name><addressOffset>0x4</addressOffset><size>16</size></register>
        <register><name>BRR</name><addressOffset>0x8</addressOffset></register>
        <register><name>GTPR</name><addressOffset>0x18</addressOffset><size>8</size></register>
      </registers></peripheral>
    </peripherals></device>`

	dev, out := generate(t, document)

	for i, p := range dev.Peripherals {
		emitted := out.Peripherals[i]
		assert.Equal(t, p.Name, emitted.Name)
		assert.Equal(t, p.BaseAddress, emitted.Singleton.Address)

		var registers []*api.Register
		for _, item := range emitted.Items {
			if !item.IsPadding() {
				registers = append(registers, item.Register)
			}
		}
		assert.Len(t, registers, len(p.Registers))

		for j, r := range p.Registers {
			emittedRegister := registers[j]
			assert.Equal(t, r.Name, emittedRegister.Name)
			assert.Equal(t, r.Offset, emittedRegister.Offset)
			assert.Equal(t, r.Width, emittedRegister.Width)
			assert.Equal(t, r.ResetValue, emittedRegister.Reset)
			assert.Len(t, emittedRegister.ReadFields, len(r.Fields))

			for _, f := range r.Fields {
				var found bool
				for _, ef := range emittedRegister.ReadFields {
					if ef.Name == f.Name {
						found = true
						assert.Equal(t, f.BitOffset, ef.Offset)
						assert.Equal(t, f.BitWidth, ef.Width)
					}
				}
				assert.True(t, found)
			}
		}
	}
}

func TestEmitDerivedBlockWithOwnSize(t *testing.T) {
	_, out := generate(t, `<device><name>D</name><peripherals>
      <peripheral><name>TIM2</name><baseAddress>0x40000000</baseAddress><registers>
        <register><name>CR1</name><addressOffset>0x0</addressOffset></register>
      </registers></peripheral>
      <peripheral derivedFrom="TIM2"><name>TIM3</name><baseAddress>0x40000400</baseAddress>
        <addressBlock><offset>0</offset><size>0x400</size></addressBlock>
      </peripheral>
    </peripherals></device>`)

	assert.Equal(t, "TIM3", out.Peripherals[1].Singleton.BlockType)
	assert.Equal(t, uint64(0x400), out.Peripherals[1].Size)
}
