// Package rgb565 provides a 16-bit RGB565 image format for the ST7735 display controller.
//
// The ST7735 is configured for 16 bits per pixel: 5 bits red, 6 bits green and
// 5 bits blue. Pixels are sent high byte first.
//
// Memory layout example for a 2-pixel row:
//
//	Pixels: 0       1
//	Colors: Red     Blue
//	Bytes:  F8 00   00 1F
//
// This package provides:
//
// - Color: A color type holding one RGB565 value
// - Model: A color model for converting standard Go colors to Color
// - Image: An image.Image implementation whose Pix slice is the wire layout
//
// Example usage:
//
//	// Create a 160x128 image
//	img := rgb565.NewImage(image.Rect(0, 0, 160, 128))
//
//	// Set a pixel
//	img.SetRGB565(10, 20, rgb565.Purple)
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(rgb565.White), image.Point{}, draw.Src)
package rgb565
